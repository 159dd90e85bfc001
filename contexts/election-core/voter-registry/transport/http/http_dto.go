package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterVoterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type VoterResponse struct {
	VoterID     string `json:"voter_id"`
	BallotID    string `json:"ballot_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	HasVoted    bool   `json:"has_voted"`
	IsVerified  bool   `json:"is_verified"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

type ImportVotersRequest struct {
	Voters []RegisterVoterRequest `json:"voters"`
}

type ImportVotersResponse struct {
	Added         []VoterResponse `json:"added"`
	ExistingCount int             `json:"existing_count"`
	TotalVoters   int             `json:"total_voters"`
}

type VoterListResponse struct {
	Items []VoterResponse `json:"items"`
}
