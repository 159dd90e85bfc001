package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	"ballotbox/contexts/election-core/ballot-integrity/ports"

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

func (r *Repository) WithinTx(ctx context.Context, fn func(ports.IntegrityRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (ports.BallotSnapshot, error) {
	var row ballotSnapshotModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BallotSnapshot{}, domainerrors.ErrBallotNotFound
		}
		return ports.BallotSnapshot{}, r.logError("integrity_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return ports.BallotSnapshot{
		BallotID:        row.ID,
		Status:          row.Status,
		CreatorEmail:    row.CreatorEmail,
		TotalVoters:     row.TotalVoters,
		BallotsReceived: row.BallotsReceived,
	}, nil
}

func (r *Repository) ListBallotIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&ballotSnapshotModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, r.logError("integrity_repo_list_ballot_ids_failed", err)
	}
	return ids, nil
}

func (r *Repository) ListVoters(ctx context.Context, ballotID string) ([]ports.VoterSnapshot, error) {
	var rows []voterSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("integrity_repo_list_voters_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]ports.VoterSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.VoterSnapshot{
			VoterID:     row.ID,
			BallotID:    row.BallotID,
			Email:       row.Email,
			Name:        row.Name,
			HasVoted:    row.HasVoted,
			IsVerified:  row.IsVerified,
			Placeholder: row.Placeholder,
		})
	}
	return items, nil
}

func (r *Repository) ListVotes(ctx context.Context, ballotID string) ([]ports.VoteSnapshot, error) {
	var rows []voteSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("integrity_repo_list_votes_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]ports.VoteSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.VoteSnapshot{
			VoteID:     row.ID,
			BallotID:   row.BallotID,
			VoterID:    row.VoterID,
			QuestionID: row.QuestionID,
			ChoiceID:   row.ChoiceID,
		})
	}
	return items, nil
}

func (r *Repository) InsertVoter(ctx context.Context, voter ports.VoterSnapshot, now time.Time) error {
	row := voterSnapshotModel{
		ID:          strings.TrimSpace(voter.VoterID),
		BallotID:    strings.TrimSpace(voter.BallotID),
		Email:       strings.TrimSpace(voter.Email),
		Name:        strings.TrimSpace(voter.Name),
		HasVoted:    voter.HasVoted,
		IsVerified:  voter.IsVerified,
		Placeholder: voter.Placeholder,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("integrity_repo_insert_voter_failed", err,
			"ballot_id", row.BallotID,
			"voter_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) SetVoterHasVoted(ctx context.Context, voterID string, hasVoted bool, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&voterSnapshotModel{}).
		Where("id = ?", strings.TrimSpace(voterID)).
		Updates(map[string]any{
			"has_voted":  hasVoted,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return r.logError("integrity_repo_set_has_voted_failed", result.Error,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) SetBallotCounters(ctx context.Context, ballotID string, totalVoters int, ballotsReceived int, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ballotSnapshotModel{}).
		Where("id = ?", strings.TrimSpace(ballotID)).
		Updates(map[string]any{
			"total_voters":     totalVoters,
			"ballots_received": ballotsReceived,
			"updated_at":       now.UTC(),
		})
	if result.Error != nil {
		return r.logError("integrity_repo_set_counters_failed", result.Error,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBallotNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/ballot-integrity",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("integrity repository operation failed", fields...)
	return err
}

type ballotSnapshotModel struct {
	ID              string `gorm:"column:id;primaryKey"`
	Status          string `gorm:"column:status"`
	CreatorEmail    string `gorm:"column:creator_email"`
	TotalVoters     int    `gorm:"column:total_voters"`
	BallotsReceived int    `gorm:"column:ballots_received"`
}

func (ballotSnapshotModel) TableName() string {
	return "ballots"
}

type voterSnapshotModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	BallotID    string    `gorm:"column:ballot_id"`
	Email       string    `gorm:"column:email"`
	Name        string    `gorm:"column:name"`
	HasVoted    bool      `gorm:"column:has_voted"`
	IsVerified  bool      `gorm:"column:is_verified"`
	Placeholder bool      `gorm:"column:placeholder"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (voterSnapshotModel) TableName() string {
	return "voters"
}

type voteSnapshotModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	BallotID   string `gorm:"column:ballot_id"`
	VoterID    string `gorm:"column:voter_id"`
	QuestionID string `gorm:"column:question_id"`
	ChoiceID   string `gorm:"column:choice_id"`
}

func (voteSnapshotModel) TableName() string {
	return "votes"
}

var _ ports.IntegrityRepository = (*Repository)(nil)
