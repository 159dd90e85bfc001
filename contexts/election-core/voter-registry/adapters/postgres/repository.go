package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	domainerrors "ballotbox/contexts/election-core/voter-registry/domain/errors"
	"ballotbox/contexts/election-core/voter-registry/ports"

	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repository) WithinTx(ctx context.Context, fn func(ports.RegistryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (ports.BallotRef, error) {
	var row ballotRefModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BallotRef{}, domainerrors.ErrBallotNotFound
		}
		return ports.BallotRef{}, r.logError("registry_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return ports.BallotRef{
		BallotID:    row.ID,
		Status:      row.Status,
		TotalVoters: row.TotalVoters,
	}, nil
}

func (r *Repository) GetVoterByEmail(ctx context.Context, ballotID string, email string) (entities.Voter, bool, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Where("LOWER(email) = ?", entities.NormalizeEmail(email)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, false, nil
		}
		return entities.Voter{}, false, r.logError("registry_repo_get_voter_by_email_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetVoter(ctx context.Context, ballotID string, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voterID)).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("registry_repo_get_voter_failed", err,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) InsertVoter(ctx context.Context, voter entities.Voter) error {
	row := voterModelFromEntity(voter)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Concurrent registration for the same (ballot, email); the caller
			// treats the pair as already existing on retry.
			return domainerrors.ErrInvalidVoterInput
		}
		return r.logError("registry_repo_insert_voter_failed", err,
			"ballot_id", strings.TrimSpace(voter.BallotID),
		)
	}
	return nil
}

func (r *Repository) SaveVoter(ctx context.Context, voter entities.Voter) error {
	row := voterModelFromEntity(voter)
	result := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"name":        row.Name,
			"has_voted":   row.HasVoted,
			"is_verified": row.IsVerified,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("registry_repo_save_voter_failed", result.Error,
			"voter_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) CountVoters(ctx context.Context, ballotID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("registry_repo_count_voters_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return int(count), nil
}

func (r *Repository) SetTotalVoters(ctx context.Context, ballotID string, total int, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ballotRefModel{}).
		Where("id = ?", strings.TrimSpace(ballotID)).
		Updates(map[string]any{
			"total_voters": total,
			"updated_at":   updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("registry_repo_set_total_voters_failed", result.Error,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBallotNotFound
	}
	return nil
}

func (r *Repository) ListVoters(ctx context.Context, ballotID string) ([]entities.Voter, error) {
	var rows []voterModel
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", strings.TrimSpace(ballotID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("registry_repo_list_voters_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	items := make([]entities.Voter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/voter-registry",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("registry repository operation failed", fields...)
	return err
}

type ballotRefModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	Status      string `gorm:"column:status"`
	TotalVoters int    `gorm:"column:total_voters"`
}

func (ballotRefModel) TableName() string {
	return "ballots"
}

type voterModel struct {
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

func (voterModel) TableName() string {
	return "voters"
}

func voterModelFromEntity(voter entities.Voter) voterModel {
	row := voterModel{
		ID:          strings.TrimSpace(voter.VoterID),
		BallotID:    strings.TrimSpace(voter.BallotID),
		Email:       entities.NormalizeEmail(voter.Email),
		Name:        strings.TrimSpace(voter.Name),
		HasVoted:    voter.HasVoted,
		IsVerified:  voter.IsVerified,
		Placeholder: voter.Placeholder,
		CreatedAt:   voter.CreatedAt.UTC(),
		UpdatedAt:   voter.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voterModel) toEntity() entities.Voter {
	return entities.Voter{
		VoterID:     m.ID,
		BallotID:    m.BallotID,
		Email:       m.Email,
		Name:        m.Name,
		HasVoted:    m.HasVoted,
		IsVerified:  m.IsVerified,
		Placeholder: m.Placeholder,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.RegistryRepository = (*Repository)(nil)
