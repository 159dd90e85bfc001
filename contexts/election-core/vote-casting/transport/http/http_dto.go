package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AnswerInput struct {
	QuestionID string `json:"question_id"`
	ChoiceID   string `json:"choice_id"`
	Rank       *int   `json:"rank,omitempty"`
}

type CastVoteRequest struct {
	VoterID string        `json:"voter_id"`
	Answers []AnswerInput `json:"answers"`
}

type CastVoteResponse struct {
	BallotID      string `json:"ballot_id"`
	VoterID       string `json:"voter_id"`
	AnsweredCount int    `json:"answered_count"`
	AutoVerified  bool   `json:"auto_verified"`
	CastAt        string `json:"cast_at"`
}

type ChoiceTallyItem struct {
	ChoiceID string `json:"choice_id"`
	Label    string `json:"label"`
	Votes    int    `json:"votes"`
	RankSum  int    `json:"rank_sum,omitempty"`
}

type QuestionTallyItem struct {
	QuestionID string            `json:"question_id"`
	Prompt     string            `json:"prompt"`
	Type       string            `json:"question_type"`
	Choices    []ChoiceTallyItem `json:"choices"`
}

type BallotResultsResponse struct {
	BallotID        string              `json:"ballot_id"`
	TotalVoters     int                 `json:"total_voters"`
	BallotsReceived int                 `json:"ballots_received"`
	Questions       []QuestionTallyItem `json:"questions"`
}
