package entities

// OrphanedVote is a vote row whose voter no longer exists.
type OrphanedVote struct {
	VoteID  string
	VoterID string
}

// CreatorSelfVote is a vote cast by a voter sharing the creator's email.
// A policy violation, not data corruption.
type CreatorSelfVote struct {
	VoteID  string
	VoterID string
	Email   string
}

// CountCheck compares the stored ballots_received counter against the
// number of distinct voters holding at least one vote row.
type CountCheck struct {
	Reported       int
	DistinctVoters int
	Accurate       bool
}

// FlagIssue is a voter whose has_voted flag disagrees with the vote rows.
type FlagIssue struct {
	VoterID   string
	Email     string
	HasVoted  bool
	VoteCount int
}

// Report is the outcome of validating one ballot. Passed is true only when
// every check came back clean. CheckError carries the infrastructure failure
// that kept a batch run from inspecting this ballot at all.
type Report struct {
	BallotID         string
	Passed           bool
	OrphanedVotes    []OrphanedVote
	CreatorSelfVotes []CreatorSelfVote
	Counts           CountCheck
	FlagIssues       []FlagIssue
	Recommendations  []string
	CheckError       string
}

// RepairStats summarizes the corrective actions one repair run took.
type RepairStats struct {
	TotalVotes       int
	CreatedVoters    int
	FixedVotes       int
	FinalTotalVoters int
	FinalVotedVoters int
}
