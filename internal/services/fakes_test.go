package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/noka-project/backend/internal/fmp"
	"github.com/noka-project/backend/internal/models"
)

// memStore is an in-memory PuzzleStore with the same merge/batch semantics as
// the Postgres implementation.
type memStore struct {
	mu          sync.Mutex
	puzzles     map[string]models.Puzzle
	companies   map[string]models.DailyCompany
	predictions map[string]models.UserPrediction

	readErr      error
	publishErr   error
	saveErr      error
	publishCalls int
}

func newMemStore() *memStore {
	return &memStore{
		puzzles:     make(map[string]models.Puzzle),
		companies:   make(map[string]models.DailyCompany),
		predictions: make(map[string]models.UserPrediction),
	}
}

func predictionKey(userID uuid.UUID, dateKey string) string {
	return userID.String() + "|" + dateKey
}

func (m *memStore) GetPuzzle(_ context.Context, dateKey string) (*models.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	puzzle, ok := m.puzzles[dateKey]
	if !ok {
		return nil, nil
	}
	return &puzzle, nil
}

func (m *memStore) GetDailyCompany(_ context.Context, symbol string) (*models.DailyCompany, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	company, ok := m.companies[symbol]
	if !ok {
		return nil, nil
	}
	return &company, nil
}

func (m *memStore) GetPrediction(_ context.Context, userID uuid.UUID, dateKey string) (*models.UserPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	prediction, ok := m.predictions[predictionKey(userID, dateKey)]
	if !ok {
		return nil, nil
	}
	return &prediction, nil
}

func (m *memStore) SavePrediction(_ context.Context, prediction *models.UserPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.predictions[predictionKey(prediction.UserID, prediction.DateKey)] = *prediction
	return nil
}

func (m *memStore) PublishDaily(_ context.Context, puzzle *models.Puzzle, companies []models.DailyCompany) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishCalls++
	if m.publishErr != nil {
		// Atomic batch: nothing lands on failure
		return m.publishErr
	}
	for _, company := range companies {
		m.companies[company.Symbol] = company
	}
	m.puzzles[puzzle.DateKey] = *puzzle
	return nil
}

// fakeQuoter serves canned quotes with per-symbol failures
type fakeQuoter struct {
	mu     sync.Mutex
	quotes map[string]*fmp.Quote
	errs   map[string]error
	calls  int
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{
		quotes: make(map[string]*fmp.Quote),
		errs:   make(map[string]error),
	}
}

func (f *fakeQuoter) GetQuote(_ context.Context, symbol string) (*fmp.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if quote, ok := f.quotes[symbol]; ok {
		return quote, nil
	}
	return nil, errors.New("no quote configured")
}

func floatPtr(v float64) *float64 { return &v }
