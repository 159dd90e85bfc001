// Package ballotservice owns the ballot aggregate and its lifecycle:
// creation with the full question tree in one transaction, the
// draft/scheduled/active/completed state machine, and the worker sweep that
// moves ballots along it when their dates pass.
package ballotservice
