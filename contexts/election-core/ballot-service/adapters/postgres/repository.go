package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	"ballotbox/contexts/election-core/ballot-service/ports"

	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ports.BallotRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) InsertBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ballot_repo_insert_ballot_failed", err,
			"ballot_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) InsertQuestions(ctx context.Context, questions []entities.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]questionModel, 0, len(questions))
	for _, question := range questions {
		rows = append(rows, questionModelFromEntity(question))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("ballot_repo_insert_questions_failed", err,
			"question_count", len(rows),
		)
	}
	return nil
}

func (r *Repository) InsertChoices(ctx context.Context, choices []entities.Choice) error {
	if len(choices) == 0 {
		return nil
	}
	rows := make([]choiceModel, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, choiceModelFromEntity(choice))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("ballot_repo_insert_choices_failed", err,
			"choice_count", len(rows),
		)
	}
	return nil
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrBallotNotFound
		}
		return entities.Ballot{}, r.logError("ballot_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	result := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"title":                row.Title,
			"status":               row.Status,
			"start_date":           row.StartDate,
			"end_date":             row.EndDate,
			"require_verification": row.RequireVerification,
			"updated_at":           row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("ballot_repo_save_ballot_failed", result.Error,
			"ballot_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBallotNotFound
	}
	return nil
}

func (r *Repository) ListBallots(ctx context.Context, filter ports.BallotFilter) ([]entities.Ballot, error) {
	query := r.db.WithContext(ctx).Model(&ballotModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var rows []ballotModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_ballots_failed", err)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListQuestions(ctx context.Context, ballotID string) ([]entities.Question, error) {
	var rows []questionModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_questions_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]entities.Question, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListChoices(ctx context.Context, ballotID string) ([]entities.Choice, error) {
	var rows []choiceModel
	if err := r.db.WithContext(ctx).
		Where("question_id IN (?)", r.db.
			Model(&questionModel{}).
			Select("id").
			Where("ballot_id = ?", strings.TrimSpace(ballotID))).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_choices_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]entities.Choice, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ActivateScheduledBallots(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return r.sweepStatus(ctx,
		string(entities.BallotStatusScheduled),
		string(entities.BallotStatusActive),
		"start_date <= ?",
		now, limit,
		"ballot_repo_activation_sweep_failed",
	)
}

func (r *Repository) CompleteExpiredBallots(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return r.sweepStatus(ctx,
		string(entities.BallotStatusActive),
		string(entities.BallotStatusCompleted),
		"end_date <= ?",
		now, limit,
		"ballot_repo_completion_sweep_failed",
	)
}

func (r *Repository) sweepStatus(
	ctx context.Context,
	fromStatus string,
	toStatus string,
	dateClause string,
	now time.Time,
	limit int,
	failureEvent string,
) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&ballotModel{}).
			Where("status = ?", fromStatus).
			Where(dateClause, now.UTC()).
			Order("created_at ASC").
			Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.
			Model(&ballotModel{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     toStatus,
				"updated_at": now.UTC(),
			}).Error
	})
	if err != nil {
		return nil, r.logError(failureEvent, err)
	}
	return ids, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/ballot-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ballot repository operation failed", fields...)
	return err
}

type ballotModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	Title               string     `gorm:"column:title"`
	CreatorEmail        string     `gorm:"column:creator_email"`
	Status              string     `gorm:"column:status"`
	StartDate           *time.Time `gorm:"column:start_date"`
	EndDate             *time.Time `gorm:"column:end_date"`
	RequireVerification bool       `gorm:"column:require_verification"`
	TotalVoters         int        `gorm:"column:total_voters"`
	BallotsReceived     int        `gorm:"column:ballots_received"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:                  strings.TrimSpace(ballot.BallotID),
		Title:               strings.TrimSpace(ballot.Title),
		CreatorEmail:        strings.ToLower(strings.TrimSpace(ballot.CreatorEmail)),
		Status:              string(ballot.Status),
		StartDate:           ballot.StartDate,
		EndDate:             ballot.EndDate,
		RequireVerification: ballot.RequireVerification,
		TotalVoters:         ballot.TotalVoters,
		BallotsReceived:     ballot.BallotsReceived,
		CreatedAt:           ballot.CreatedAt.UTC(),
		UpdatedAt:           ballot.UpdatedAt.UTC(),
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:            m.ID,
		Title:               m.Title,
		CreatorEmail:        m.CreatorEmail,
		Status:              entities.BallotStatus(m.Status),
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		RequireVerification: m.RequireVerification,
		TotalVoters:         m.TotalVoters,
		BallotsReceived:     m.BallotsReceived,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type questionModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	BallotID      string `gorm:"column:ballot_id"`
	Prompt        string `gorm:"column:prompt"`
	Type          string `gorm:"column:question_type"`
	MaxSelections int    `gorm:"column:max_selections"`
	Position      int    `gorm:"column:position"`
}

func (questionModel) TableName() string {
	return "questions"
}

func questionModelFromEntity(question entities.Question) questionModel {
	return questionModel{
		ID:            strings.TrimSpace(question.QuestionID),
		BallotID:      strings.TrimSpace(question.BallotID),
		Prompt:        strings.TrimSpace(question.Prompt),
		Type:          string(question.Type),
		MaxSelections: question.MaxSelections,
		Position:      question.Position,
	}
}

func (m questionModel) toEntity() entities.Question {
	return entities.Question{
		QuestionID:    m.ID,
		BallotID:      m.BallotID,
		Prompt:        m.Prompt,
		Type:          entities.QuestionType(m.Type),
		MaxSelections: m.MaxSelections,
		Position:      m.Position,
	}
}

type choiceModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	QuestionID string `gorm:"column:question_id"`
	Label      string `gorm:"column:label"`
	Position   int    `gorm:"column:position"`
}

func (choiceModel) TableName() string {
	return "choices"
}

func choiceModelFromEntity(choice entities.Choice) choiceModel {
	return choiceModel{
		ID:         strings.TrimSpace(choice.ChoiceID),
		QuestionID: strings.TrimSpace(choice.QuestionID),
		Label:      strings.TrimSpace(choice.Label),
		Position:   choice.Position,
	}
}

func (m choiceModel) toEntity() entities.Choice {
	return entities.Choice{
		ChoiceID:   m.ID,
		QuestionID: m.QuestionID,
		Label:      m.Label,
		Position:   m.Position,
	}
}

var (
	_ ports.BallotRepository   = (*Repository)(nil)
	_ ports.DeadlineRepository = (*Repository)(nil)
)
