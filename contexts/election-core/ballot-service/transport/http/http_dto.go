package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ChoiceInput struct {
	Label string `json:"label"`
}

type QuestionInput struct {
	Prompt        string        `json:"prompt"`
	Type          string        `json:"type"`
	MaxSelections int           `json:"max_selections,omitempty"`
	Choices       []ChoiceInput `json:"choices"`
}

type CreateBallotRequest struct {
	Title               string          `json:"title"`
	CreatorEmail        string          `json:"creator_email"`
	StartDate           string          `json:"start_date,omitempty"`
	EndDate             string          `json:"end_date,omitempty"`
	RequireVerification bool            `json:"require_verification"`
	Questions           []QuestionInput `json:"questions"`
}

type ChangeStatusRequest struct {
	To    string `json:"to"`
	Force bool   `json:"force,omitempty"`
}

type ChoiceItem struct {
	ChoiceID string `json:"choice_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type QuestionItem struct {
	QuestionID    string       `json:"question_id"`
	Prompt        string       `json:"prompt"`
	Type          string       `json:"type"`
	MaxSelections int          `json:"max_selections"`
	Position      int          `json:"position"`
	Choices       []ChoiceItem `json:"choices"`
}

type BallotResponse struct {
	BallotID            string `json:"ballot_id"`
	Title               string `json:"title"`
	CreatorEmail        string `json:"creator_email"`
	Status              string `json:"status"`
	StartDate           string `json:"start_date,omitempty"`
	EndDate             string `json:"end_date,omitempty"`
	RequireVerification bool   `json:"require_verification"`
	TotalVoters         int    `json:"total_voters"`
	BallotsReceived     int    `json:"ballots_received"`
}

type BallotDetailResponse struct {
	BallotResponse
	Questions []QuestionItem `json:"questions"`
}

type BallotListResponse struct {
	Items []BallotResponse `json:"items"`
}
