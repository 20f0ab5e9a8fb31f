package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noka-project/backend/internal/dates"
	"github.com/noka-project/backend/internal/fmp"
)

var generatorNow = time.Date(2025, 1, 2, 6, 0, 0, 0, time.UTC)

func newTestGenerator(store *memStore, quoter *fakeQuoter) *PuzzleGenerator {
	gen := NewPuzzleGenerator(store, nil, quoter, dates.Fixed(generatorNow), time.UTC, "test-key")
	gen.Candidates = []Candidate{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft Corp."},
		{Symbol: "BRK.B", Name: ""},
	}
	return gen
}

func TestRunPublishesReadyPuzzle(t *testing.T) {
	store := newMemStore()
	quoter := newFakeQuoter()
	quoter.quotes["AAPL"] = &fmp.Quote{Symbol: "AAPL", Name: "Apple Inc. Fetched", Price: floatPtr(150.0)}
	quoter.quotes["MSFT"] = &fmp.Quote{Symbol: "MSFT", RegularMarketPrice: floatPtr(300.0)}
	quoter.errs["BRK.B"] = errors.New("gateway timeout")

	gen := newTestGenerator(store, quoter)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	puzzle := store.puzzles["2025-01-02"]
	if !puzzle.IsReady {
		t.Fatal("puzzle should be marked ready")
	}
	want := []string{"AAPL", "MSFT", "BRK.B"}
	if len(puzzle.Symbols) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(puzzle.Symbols))
	}
	for i, symbol := range want {
		if puzzle.Symbols[i] != symbol {
			t.Errorf("symbol %d: expected %s, got %s", i, symbol, puzzle.Symbols[i])
		}
	}

	aapl := store.companies["AAPL"]
	if aapl.Name != "Apple Inc. Fetched" {
		t.Errorf("expected fetched name to win, got %q", aapl.Name)
	}
	if aapl.Price == nil || *aapl.Price != 150.0 {
		t.Errorf("unexpected AAPL price: %v", aapl.Price)
	}
	if aapl.DateKey != "2025-01-02" {
		t.Errorf("unexpected date key: %s", aapl.DateKey)
	}

	// price falls back to regularMarketPrice, name to the candidate name
	msft := store.companies["MSFT"]
	if msft.Price == nil || *msft.Price != 300.0 {
		t.Errorf("unexpected MSFT price: %v", msft.Price)
	}
	if msft.Name != "Microsoft Corp." {
		t.Errorf("unexpected MSFT name: %q", msft.Name)
	}

	// a failed fetch records a null price and falls back to the symbol as name
	brk := store.companies["BRK.B"]
	if brk.Price != nil {
		t.Errorf("expected null price for failed fetch, got %v", brk.Price)
	}
	if brk.Name != "BRK.B" {
		t.Errorf("unexpected BRK.B name: %q", brk.Name)
	}
	if brk.LogoURL != "https://logo.clearbit.com/brkb.com" {
		t.Errorf("unexpected logo url: %s", brk.LogoURL)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := newMemStore()
	quoter := newFakeQuoter()
	quoter.quotes["AAPL"] = &fmp.Quote{Symbol: "AAPL", Price: floatPtr(150.0)}
	quoter.quotes["MSFT"] = &fmp.Quote{Symbol: "MSFT", Price: floatPtr(300.0)}
	quoter.quotes["BRK.B"] = &fmp.Quote{Symbol: "BRK.B", Price: floatPtr(400.0)}

	gen := newTestGenerator(store, quoter)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstPuzzle := store.puzzles["2025-01-02"]
	firstCompanies := make(map[string]string)
	for symbol, company := range store.companies {
		firstCompanies[symbol] = company.Name + company.DateKey
	}

	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(store.puzzles) != 1 {
		t.Fatalf("expected one puzzle record, got %d", len(store.puzzles))
	}
	secondPuzzle := store.puzzles["2025-01-02"]
	if !secondPuzzle.IsReady || len(secondPuzzle.Symbols) != len(firstPuzzle.Symbols) {
		t.Fatal("second run changed puzzle content")
	}
	for symbol, fingerprint := range firstCompanies {
		company := store.companies[symbol]
		if company.Name+company.DateKey != fingerprint {
			t.Errorf("second run changed snapshot for %s", symbol)
		}
	}
	if store.publishCalls != 2 {
		t.Errorf("expected 2 publish calls, got %d", store.publishCalls)
	}
}

func TestRunAllQuotesFailStillPublishesReady(t *testing.T) {
	store := newMemStore()
	quoter := newFakeQuoter()
	for _, cand := range []string{"AAPL", "MSFT", "BRK.B"} {
		quoter.errs[cand] = errors.New("gateway down")
	}

	gen := newTestGenerator(store, quoter)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	puzzle := store.puzzles["2025-01-02"]
	if !puzzle.IsReady {
		t.Fatal("puzzle must be ready even under total quote failure")
	}
	for symbol, company := range store.companies {
		if company.Price != nil {
			t.Errorf("expected null price for %s, got %v", symbol, company.Price)
		}
	}
}

func TestRunMissingAPIKeyAbortsBeforeAnyWork(t *testing.T) {
	store := newMemStore()
	quoter := newFakeQuoter()

	gen := newTestGenerator(store, quoter)
	gen.APIKey = "  "

	err := gen.Run(context.Background())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if quoter.calls != 0 {
		t.Errorf("expected no quote fetches, got %d", quoter.calls)
	}
	if store.publishCalls != 0 {
		t.Errorf("expected no writes, got %d publish calls", store.publishCalls)
	}
}

func TestRunBatchFailurePersistsNothing(t *testing.T) {
	store := newMemStore()
	store.publishErr = errors.New("store unavailable")
	quoter := newFakeQuoter()
	quoter.quotes["AAPL"] = &fmp.Quote{Symbol: "AAPL", Price: floatPtr(150.0)}
	quoter.quotes["MSFT"] = &fmp.Quote{Symbol: "MSFT", Price: floatPtr(300.0)}
	quoter.quotes["BRK.B"] = &fmp.Quote{Symbol: "BRK.B", Price: floatPtr(400.0)}

	gen := newTestGenerator(store, quoter)
	if err := gen.Run(context.Background()); err == nil {
		t.Fatal("expected error when the batch write fails")
	}
	if len(store.puzzles) != 0 || len(store.companies) != 0 {
		t.Fatal("no partial state may survive a failed batch")
	}
}

func TestLogoURL(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{"AAPL", "https://logo.clearbit.com/aapl.com"},
		{"BRK.B", "https://logo.clearbit.com/brkb.com"},
		{"JPM", "https://logo.clearbit.com/jpm.com"},
	}
	for _, tc := range cases {
		if got := LogoURL(tc.symbol); got != tc.want {
			t.Errorf("LogoURL(%s) = %s, want %s", tc.symbol, got, tc.want)
		}
	}
}
