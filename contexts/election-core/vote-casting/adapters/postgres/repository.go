package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	domainerrors "ballotbox/contexts/election-core/vote-casting/domain/errors"
	"ballotbox/contexts/election-core/vote-casting/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// WithinTx runs fn against a transactional repository view. gorm rolls the
// transaction back when fn returns an error, so a failed casting call leaves
// no partial vote set behind.
func (r *Repository) WithinTx(ctx context.Context, fn func(ports.CastingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (ports.BallotProjection, error) {
	var row ballotProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BallotProjection{}, domainerrors.ErrBallotNotFound
		}
		return ports.BallotProjection{}, r.logError("casting_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return ports.BallotProjection{
		BallotID:            row.ID,
		Status:              row.Status,
		CreatorEmail:        row.CreatorEmail,
		RequireVerification: row.RequireVerification,
		TotalVoters:         row.TotalVoters,
		BallotsReceived:     row.BallotsReceived,
	}, nil
}

func (r *Repository) ListQuestions(ctx context.Context, ballotID string) ([]ports.QuestionProjection, error) {
	var rows []questionProjectionModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("casting_repo_list_questions_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]ports.QuestionProjection, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.QuestionProjection{
			QuestionID:    row.ID,
			BallotID:      row.BallotID,
			Prompt:        row.Prompt,
			Type:          entities.QuestionType(row.QuestionType),
			MaxSelections: row.MaxSelections,
			Position:      row.Position,
		})
	}
	return items, nil
}

func (r *Repository) ListChoices(ctx context.Context, ballotID string) ([]ports.ChoiceProjection, error) {
	var rows []choiceProjectionModel
	err := r.db.WithContext(ctx).
		Table("choices AS c").
		Select("c.*").
		Joins("JOIN questions AS q ON q.id = c.question_id").
		Where("q.ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("c.position ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("casting_repo_list_choices_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]ports.ChoiceProjection, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ChoiceProjection{
			ChoiceID:   row.ID,
			QuestionID: row.QuestionID,
			Label:      row.Label,
			Position:   row.Position,
		})
	}
	return items, nil
}

// GetVoterForUpdate takes a SELECT ... FOR UPDATE lock on the voter row. The
// lock is released on commit/rollback of the surrounding transaction.
func (r *Repository) GetVoterForUpdate(ctx context.Context, voterID string) (ports.VoterRecord, error) {
	var row voterFlagsModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VoterRecord{}, domainerrors.ErrVoterNotFound
		}
		return ports.VoterRecord{}, r.logError("casting_repo_get_voter_failed", err,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return ports.VoterRecord{
		VoterID:    row.ID,
		BallotID:   row.BallotID,
		Email:      row.Email,
		HasVoted:   row.HasVoted,
		IsVerified: row.IsVerified,
	}, nil
}

func (r *Repository) SaveVoterFlags(ctx context.Context, voter ports.VoterRecord, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&voterFlagsModel{}).
		Where("id = ?", strings.TrimSpace(voter.VoterID)).
		Updates(map[string]any{
			"has_voted":   voter.HasVoted,
			"is_verified": voter.IsVerified,
			"updated_at":  updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("casting_repo_save_voter_flags_failed", result.Error,
			"voter_id", strings.TrimSpace(voter.VoterID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) InsertVotes(ctx context.Context, votes []entities.Vote) error {
	rows := make([]voteModel, 0, len(votes))
	for _, vote := range votes {
		rows = append(rows, voteModelFromEntity(vote))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			// The (voter_id, question_id) unique index is the backstop for
			// the double-vote race; the row lock should make this unreachable.
			return domainerrors.ErrVoterAlreadyVoted
		}
		return r.logError("casting_repo_insert_votes_failed", err,
			"vote_count", len(votes),
		)
	}
	return nil
}

func (r *Repository) ListVotesByBallot(ctx context.Context, ballotID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("casting_repo_list_votes_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) IncrementBallotsReceived(ctx context.Context, ballotID string, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ballotProjectionModel{}).
		Where("id = ?", strings.TrimSpace(ballotID)).
		Updates(map[string]any{
			"ballots_received": gorm.Expr("ballots_received + 1"),
			"updated_at":       updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("casting_repo_increment_received_failed", result.Error,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBallotNotFound
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return r.logError("casting_repo_append_outbox_marshal_failed", err,
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("casting_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("casting_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("casting_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/vote-casting",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("casting repository operation failed", fields...)
	return err
}

type ballotProjectionModel struct {
	ID                  string `gorm:"column:id;primaryKey"`
	Status              string `gorm:"column:status"`
	CreatorEmail        string `gorm:"column:creator_email"`
	RequireVerification bool   `gorm:"column:require_verification"`
	TotalVoters         int    `gorm:"column:total_voters"`
	BallotsReceived     int    `gorm:"column:ballots_received"`
}

func (ballotProjectionModel) TableName() string {
	return "ballots"
}

type questionProjectionModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	BallotID      string `gorm:"column:ballot_id"`
	Prompt        string `gorm:"column:prompt"`
	QuestionType  string `gorm:"column:question_type"`
	MaxSelections int    `gorm:"column:max_selections"`
	Position      int    `gorm:"column:position"`
}

func (questionProjectionModel) TableName() string {
	return "questions"
}

type choiceProjectionModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	QuestionID string `gorm:"column:question_id"`
	Label      string `gorm:"column:label"`
	Position   int    `gorm:"column:position"`
}

func (choiceProjectionModel) TableName() string {
	return "choices"
}

type voterFlagsModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	BallotID   string `gorm:"column:ballot_id"`
	Email      string `gorm:"column:email"`
	HasVoted   bool   `gorm:"column:has_voted"`
	IsVerified bool   `gorm:"column:is_verified"`
}

func (voterFlagsModel) TableName() string {
	return "voters"
}

type voteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	BallotID   string    `gorm:"column:ballot_id"`
	VoterID    string    `gorm:"column:voter_id"`
	QuestionID string    `gorm:"column:question_id"`
	ChoiceID   string    `gorm:"column:choice_id"`
	Rank       *int      `gorm:"column:rank"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:         strings.TrimSpace(vote.VoteID),
		BallotID:   strings.TrimSpace(vote.BallotID),
		VoterID:    strings.TrimSpace(vote.VoterID),
		QuestionID: strings.TrimSpace(vote.QuestionID),
		ChoiceID:   strings.TrimSpace(vote.ChoiceID),
		Rank:       vote.Rank,
		CreatedAt:  vote.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:     m.ID,
		BallotID:   m.BallotID,
		VoterID:    m.VoterID,
		QuestionID: m.QuestionID,
		ChoiceID:   m.ChoiceID,
		Rank:       m.Rank,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "casting_outbox"
}

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CastingRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
