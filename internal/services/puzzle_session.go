/**
 * @description
 * Puzzle Session service: client-facing reconciliation.
 * Derives, from persisted state alone, whether a user's daily puzzle is open,
 * already submitted, or unavailable, and what streak to display; accepts a
 * submission exactly once per user per day.
 *
 * @dependencies
 * - backend/internal/streak (pure streak engine)
 * - backend/internal/dates
 * - backend/internal/models
 * - github.com/redis/go-redis/v9 (dateKey-scoped cache of the public view)
 *
 * @notes
 * - Every call re-derives state from a fresh read; nothing is held across day
 *   boundaries (the cache key embeds the DateKey).
 * - The three primary reads (puzzle, yesterday's record, today's record) fan out
 *   concurrently and join; snapshot reads then fan out per symbol.
 * - Snapshots whose date_key differs from today's are stale leftovers from a
 *   prior day and are silently excluded.
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/noka-project/backend/internal/dates"
	"github.com/noka-project/backend/internal/logger"
	"github.com/noka-project/backend/internal/models"
	"github.com/noka-project/backend/internal/streak"
	"github.com/redis/go-redis/v9"
)

const viewCacheTTL = 5 * time.Minute

// SessionStatus is the reconciled state of a user's daily puzzle
type SessionStatus string

const (
	StatusOpen        SessionStatus = "open"
	StatusSubmitted   SessionStatus = "submitted"
	StatusUnavailable SessionStatus = "unavailable"
)

var (
	// ErrAlreadySubmitted rejects a second submission for the same day
	ErrAlreadySubmitted = errors.New("predictions already submitted for today")
	// ErrPuzzleUnavailable rejects a submission while no puzzle is playable
	ErrPuzzleUnavailable = errors.New("today's puzzle is not available")
	// ErrIncompleteSubmission rejects partial submissions
	ErrIncompleteSubmission = errors.New("every company needs an up or down selection")
	// ErrUnknownSymbol rejects picks for symbols not in today's puzzle
	ErrUnknownSymbol = errors.New("prediction references a symbol outside today's puzzle")
)

// CompanyView is one displayable company card
type CompanyView struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Price   *float64 `json:"price"`
	LogoURL string   `json:"logo_url"`
}

// PuzzleView is the reconciled view state for one user and one DateKey.
// Selections carries a nil entry per unanswered company in the open state and
// the stored picks once locked.
type PuzzleView struct {
	DateKey    string                       `json:"date_key"`
	Status     SessionStatus                `json:"status"`
	Streak     int                          `json:"streak"`
	Companies  []CompanyView                `json:"companies"`
	Selections map[string]*models.Direction `json:"predictions"`
}

// PuzzleSession orchestrates reads and the single submission write
type PuzzleSession struct {
	Store    PuzzleStore
	Redis    *redis.Client // optional; nil disables the public view cache
	Clock    dates.Clock
	Location *time.Location
}

func NewPuzzleSession(store PuzzleStore, rdb *redis.Client, clock dates.Clock, loc *time.Location) *PuzzleSession {
	return &PuzzleSession{
		Store:    store,
		Redis:    rdb,
		Clock:    clock,
		Location: loc,
	}
}

// State returns the user's reconciled puzzle view for today
func (s *PuzzleSession) State(ctx context.Context, userID uuid.UUID) (*PuzzleView, error) {
	view, _, err := s.load(ctx, userID)
	return view, err
}

// load performs the fan-out reads and reconciliation, also handing back
// yesterday's record so Submit can derive the next streak from the same reads.
func (s *PuzzleSession) load(ctx context.Context, userID uuid.UUID) (*PuzzleView, *models.UserPrediction, error) {
	todayKey := dates.TodayKey(s.Clock, s.Location)
	yesterdayKey := dates.YesterdayKey(s.Clock, s.Location)

	var (
		puzzle       *models.Puzzle
		yesterdayRec *models.UserPrediction
		todayRec     *models.UserPrediction

		puzzleErr, yesterdayErr, todayErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		puzzle, puzzleErr = s.Store.GetPuzzle(ctx, todayKey)
	}()
	go func() {
		defer wg.Done()
		yesterdayRec, yesterdayErr = s.Store.GetPrediction(ctx, userID, yesterdayKey)
	}()
	go func() {
		defer wg.Done()
		todayRec, todayErr = s.Store.GetPrediction(ctx, userID, todayKey)
	}()
	wg.Wait()

	for _, err := range []error{puzzleErr, yesterdayErr, todayErr} {
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load puzzle state: %w", err)
		}
	}

	// Company lookups depend on the puzzle's symbol list, so they only start
	// after the join above.
	var companies []CompanyView
	if puzzle != nil && puzzle.IsReady {
		var err error
		companies, err = s.loadCompanies(ctx, puzzle.Symbols, todayKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load puzzle state: %w", err)
		}
	}

	view := &PuzzleView{DateKey: todayKey, Companies: companies}

	switch {
	case todayRec != nil:
		// Locked regardless of puzzle readiness
		view.Status = StatusSubmitted
		view.Streak = streak.Displayed(todayRec, yesterdayRec)
		view.Selections = lockedSelections(todayRec.Predictions)
	case puzzle == nil || !puzzle.IsReady:
		view.Status = StatusUnavailable
		view.Streak = streak.Base(yesterdayRec)
		view.Selections = map[string]*models.Direction{}
	default:
		view.Status = StatusOpen
		view.Streak = streak.Base(yesterdayRec)
		view.Selections = make(map[string]*models.Direction, len(companies))
		for _, c := range companies {
			view.Selections[c.Symbol] = nil
		}
	}

	return view, yesterdayRec, nil
}

// Submit validates and persists the user's picks exactly once. On success the
// returned view is already locked; no re-read happens.
func (s *PuzzleSession) Submit(ctx context.Context, userID uuid.UUID, picks models.PredictionMap) (*PuzzleView, error) {
	view, yesterdayRec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch view.Status {
	case StatusSubmitted:
		// Selecting or submitting while locked is a no-op on stored state
		return view, ErrAlreadySubmitted
	case StatusUnavailable:
		return nil, ErrPuzzleUnavailable
	}

	// A ready puzzle whose snapshots are all stale displays nothing; there is
	// nothing to predict on, so nothing may be locked in.
	if len(view.Companies) == 0 {
		return nil, ErrPuzzleUnavailable
	}

	displayed := make(map[string]bool, len(view.Companies))
	for _, c := range view.Companies {
		displayed[c.Symbol] = true
	}
	for symbol := range picks {
		if !displayed[symbol] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
		}
	}

	normalized := make(models.PredictionMap, len(view.Companies))
	for _, c := range view.Companies {
		direction, ok := picks[c.Symbol]
		if !ok || !direction.Valid() {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteSubmission, c.Symbol)
		}
		normalized[c.Symbol] = direction
	}

	record := &models.UserPrediction{
		UserID:      userID,
		DateKey:     view.DateKey,
		Predictions: normalized,
		// Derived from yesterday's stored value, never from the shown streak
		Streak: streak.Next(yesterdayRec),
	}

	if err := s.Store.SavePrediction(ctx, record); err != nil {
		// Local state stays unsubmitted so the caller may retry
		return nil, fmt.Errorf("failed to save predictions: %w", err)
	}

	view.Status = StatusSubmitted
	view.Streak = record.Streak
	view.Selections = lockedSelections(record.Predictions)
	return view, nil
}

// loadCompanies resolves the puzzle's symbols to today's snapshots: concurrent
// per-symbol point reads, stale snapshots excluded, puzzle order preserved.
func (s *PuzzleSession) loadCompanies(ctx context.Context, symbols []string, todayKey string) ([]CompanyView, error) {
	if cached := s.cachedCompanies(ctx, todayKey); cached != nil {
		return cached, nil
	}

	snapshots := make([]*models.DailyCompany, len(symbols))
	errs := make([]error, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			snapshots[i], errs[i] = s.Store.GetDailyCompany(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	companies := make([]CompanyView, 0, len(symbols))
	for _, snapshot := range snapshots {
		if snapshot == nil || snapshot.DateKey != todayKey {
			continue
		}
		companies = append(companies, CompanyView{
			Symbol:  snapshot.Symbol,
			Name:    snapshot.Name,
			Price:   snapshot.Price,
			LogoURL: snapshot.LogoURL,
		})
	}

	s.cacheCompanies(ctx, todayKey, companies)
	return companies, nil
}

func viewCacheKey(dateKey string) string {
	return "puzzle:view:" + dateKey
}

// cachedCompanies returns the cached public view, nil on miss or without Redis
func (s *PuzzleSession) cachedCompanies(ctx context.Context, dateKey string) []CompanyView {
	if s.Redis == nil {
		return nil
	}
	data, err := s.Redis.Get(ctx, viewCacheKey(dateKey)).Bytes()
	if err != nil {
		return nil
	}
	var companies []CompanyView
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil
	}
	return companies
}

func (s *PuzzleSession) cacheCompanies(ctx context.Context, dateKey string, companies []CompanyView) {
	if s.Redis == nil || len(companies) == 0 {
		return
	}
	data, err := json.Marshal(companies)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, viewCacheKey(dateKey), data, viewCacheTTL).Err(); err != nil {
		logger.Error("PuzzleSession: failed to cache companies for %s: %v", dateKey, err)
	}
}

func lockedSelections(stored models.PredictionMap) map[string]*models.Direction {
	selections := make(map[string]*models.Direction, len(stored))
	for symbol, direction := range stored {
		d := direction
		selections[symbol] = &d
	}
	return selections
}
