package entities

import (
	"strings"
	"time"
)

type BallotStatus string
type QuestionType string

const (
	BallotStatusDraft     BallotStatus = "draft"
	BallotStatusScheduled BallotStatus = "scheduled"
	BallotStatusActive    BallotStatus = "active"
	BallotStatusCompleted BallotStatus = "completed"

	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeRank     QuestionType = "rank"
)

type Ballot struct {
	BallotID            string
	Title               string
	CreatorEmail        string
	Status              BallotStatus
	StartDate           *time.Time
	EndDate             *time.Time
	RequireVerification bool
	TotalVoters         int
	BallotsReceived     int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Question struct {
	QuestionID    string
	BallotID      string
	Prompt        string
	Type          QuestionType
	MaxSelections int
	Position      int
}

type Choice struct {
	ChoiceID   string
	QuestionID string
	Label      string
	Position   int
}

// BallotDetail is the read model: the ballot plus its ordered questions and
// their ordered choices.
type BallotDetail struct {
	Ballot    Ballot
	Questions []QuestionDetail
}

type QuestionDetail struct {
	Question Question
	Choices  []Choice
}

func (b Ballot) ValidateBasics() bool {
	title := strings.TrimSpace(b.Title)
	return title != "" &&
		len(title) >= 3 &&
		len(title) <= 200 &&
		IsPlausibleEmail(b.CreatorEmail) &&
		datesOrdered(b.StartDate, b.EndDate)
}

func datesOrdered(start *time.Time, end *time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	return end.UTC().After(start.UTC())
}

func IsSupportedQuestionType(value QuestionType) bool {
	switch value {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeRank:
		return true
	default:
		return false
	}
}

func IsSupportedStatus(value BallotStatus) bool {
	switch value {
	case BallotStatusDraft, BallotStatusScheduled, BallotStatusActive, BallotStatusCompleted:
		return true
	default:
		return false
	}
}

func IsPlausibleEmail(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	return strings.Contains(value[at+1:], ".")
}
