package entities

import "time"

type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeRank     QuestionType = "rank"
)

// Vote is one immutable fact row: one voter's answer to one question.
// There is no update or delete path in normal operation.
type Vote struct {
	VoteID     string
	BallotID   string
	VoterID    string
	QuestionID string
	ChoiceID   string
	Rank       *int
	CreatedAt  time.Time
}

// Answer is one (question, choice) selection inside a casting call.
type Answer struct {
	QuestionID string
	ChoiceID   string
	Rank       *int
}

// CastReceipt confirms a completed casting transaction.
type CastReceipt struct {
	BallotID      string
	VoterID       string
	AnsweredCount int
	AutoVerified  bool
	CastAt        time.Time
}

// QuestionTally aggregates vote rows for one question.
type QuestionTally struct {
	QuestionID string
	Prompt     string
	Type       QuestionType
	Position   int
	Choices    []ChoiceTally
}

type ChoiceTally struct {
	ChoiceID string
	Label    string
	Position int
	Votes    int
	RankSum  int
}

// BallotResults is the tally read model for one ballot.
type BallotResults struct {
	BallotID        string
	TotalVoters     int
	BallotsReceived int
	Questions       []QuestionTally
}

func IsSupportedQuestionType(value QuestionType) bool {
	switch value {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeRank:
		return true
	default:
		return false
	}
}
