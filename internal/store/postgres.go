/**
 * @description
 * Puzzle Store backed by PostgreSQL via GORM.
 * Owns all durable records: puzzles, daily company snapshots, and per-user
 * prediction records.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn (typed Postgres error codes for retry)
 * - backend/internal/models
 *
 * @notes
 * - Point reads return (nil, nil) for missing rows; absence is state, not error.
 * - PublishDaily commits the puzzle row and every snapshot in one transaction:
 *   either the whole batch lands or none of it does.
 * - Upserts give merge semantics: re-running the generator for the same day
 *   overwrites with equivalent content instead of duplicating.
 */

package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/noka-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// AutoMigrate creates/updates the puzzle tables
func (s *Postgres) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Puzzle{},
		&models.DailyCompany{},
		&models.UserPrediction{},
	)
}

// GetPuzzle loads the puzzle for a DateKey, nil when none was published
func (s *Postgres) GetPuzzle(ctx context.Context, dateKey string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	err := s.db.WithContext(ctx).First(&puzzle, "date_key = ?", dateKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &puzzle, nil
}

// GetDailyCompany loads the latest snapshot for a symbol, nil when absent.
// The snapshot may be stale; callers must check DateKey before displaying it.
func (s *Postgres) GetDailyCompany(ctx context.Context, symbol string) (*models.DailyCompany, error) {
	var company models.DailyCompany
	err := s.db.WithContext(ctx).First(&company, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetPrediction loads a user's record for a DateKey, nil when they have not submitted
func (s *Postgres) GetPrediction(ctx context.Context, userID uuid.UUID, dateKey string) (*models.UserPrediction, error) {
	var prediction models.UserPrediction
	err := s.db.WithContext(ctx).
		First(&prediction, "user_id = ? AND date_key = ?", userID, dateKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}

// SavePrediction upserts a user's daily record keyed by (user_id, date_key).
// A same-day race between two submissions resolves as last-write-wins.
func (s *Postgres) SavePrediction(ctx context.Context, prediction *models.UserPrediction) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"predictions",
			"streak",
		}),
	}).Create(prediction).Error
}

// PublishDaily atomically writes the day's puzzle and all of its snapshots.
// Serialization failures and deadlocks are retried with jittered backoff.
func (s *Postgres) PublishDaily(ctx context.Context, puzzle *models.Puzzle, companies []models.DailyCompany) error {
	const maxRetries = 5
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if len(companies) > 0 {
				if txErr := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "symbol"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"name",
						"date_key",
						"price",
						"logo_url",
						"updated_at",
					}),
				}).Create(&companies).Error; txErr != nil {
					return txErr
				}
			}

			return tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "date_key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"symbols",
					"is_ready",
				}),
			}).Create(puzzle).Error
		})
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40P01" || pgErr.Code == "40001") {
			backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
			time.Sleep(backoff)
			continue
		}
		break
	}
	return err
}
