// Package ballotintegrity audits and repairs the ballot fact tables. The
// validator is strictly read-only and reports orphaned votes, creator
// self-votes, counter drift, and has_voted flags that contradict the vote
// rows. The repair engine fixes all of that inside one transaction by
// synthesizing placeholder voters, recomputing flags from the vote rows, and
// rewriting both ballot counters from ground truth. Repair is idempotent.
package ballotintegrity
