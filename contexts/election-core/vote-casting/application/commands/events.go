package commands

import (
	"encoding/json"
	"time"

	"ballotbox/contexts/election-core/vote-casting/ports"
)

func newCastingEnvelope(
	eventID string,
	eventType string,
	ballotID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Casting events are partitioned by ballot for stable ordering on
	// ballot-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "vote-casting",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  ballotID,
		Data:          payload,
	}, nil
}
