// Package votecasting implements the vote casting transaction inside the
// election-core context.
//
// The module owns the write path that records one voter's complete ballot
// submission exactly once: vote-row inserts, the one-way has-voted flip, and
// the ballots-received counter advance commit together or not at all. It also
// owns the tally read model and casting event production through the
// outbox-backed relay. Business rules live in application/domain layers;
// infrastructure stays behind ports and adapters.
package votecasting
