package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OrphanedVoteItem struct {
	VoteID  string `json:"vote_id"`
	VoterID string `json:"voter_id"`
}

type CreatorSelfVoteItem struct {
	VoteID  string `json:"vote_id"`
	VoterID string `json:"voter_id"`
	Email   string `json:"email"`
}

type CountCheckItem struct {
	Reported       int  `json:"reported"`
	DistinctVoters int  `json:"distinct_voters"`
	Accurate       bool `json:"accurate"`
}

type FlagIssueItem struct {
	VoterID   string `json:"voter_id"`
	Email     string `json:"email"`
	HasVoted  bool   `json:"has_voted"`
	VoteCount int    `json:"vote_count"`
}

type ReportResponse struct {
	BallotID         string                `json:"ballot_id"`
	Passed           bool                  `json:"passed"`
	OrphanedVotes    []OrphanedVoteItem    `json:"orphaned_votes"`
	CreatorSelfVotes []CreatorSelfVoteItem `json:"creator_self_votes"`
	Counts           CountCheckItem        `json:"counts"`
	FlagIssues       []FlagIssueItem       `json:"flag_issues"`
	Recommendations  []string              `json:"recommendations,omitempty"`
	CheckError       string                `json:"check_error,omitempty"`
}

type ReportListResponse struct {
	Items []ReportResponse `json:"items"`
}

type RepairResponse struct {
	BallotID         string `json:"ballot_id"`
	TotalVotes       int    `json:"total_votes"`
	CreatedVoters    int    `json:"created_voters"`
	FixedVotes       int    `json:"fixed_votes"`
	FinalTotalVoters int    `json:"final_total_voters"`
	FinalVotedVoters int    `json:"final_voted_voters"`
}
