/**
 * @description
 * Contracts the puzzle services depend on.
 * The generator and session talk to durable storage and the quote provider
 * exclusively through these interfaces; they never share state directly.
 *
 * @notes
 * - Point reads return (nil, nil) for missing records. Absence is a valid state
 *   ("no puzzle yet", "not submitted yet"), not an error.
 */

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/noka-project/backend/internal/fmp"
	"github.com/noka-project/backend/internal/models"
)

// PuzzleStore is the durable keyed storage owning all puzzle state
type PuzzleStore interface {
	GetPuzzle(ctx context.Context, dateKey string) (*models.Puzzle, error)
	GetDailyCompany(ctx context.Context, symbol string) (*models.DailyCompany, error)
	GetPrediction(ctx context.Context, userID uuid.UUID, dateKey string) (*models.UserPrediction, error)
	SavePrediction(ctx context.Context, prediction *models.UserPrediction) error
	PublishDaily(ctx context.Context, puzzle *models.Puzzle, companies []models.DailyCompany) error
}

// QuoteProvider supplies the current quote for one symbol.
// Implemented by fmp.Client; faked in tests.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*fmp.Quote, error)
}
