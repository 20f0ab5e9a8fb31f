/**
 * @description
 * Puzzle Generator service.
 * Runs once per day (fired by an external scheduler): snapshots a quote for each
 * candidate symbol and publishes the dated puzzle record in a single atomic batch.
 *
 * @dependencies
 * - backend/internal/fmp (Market Data Gateway)
 * - backend/internal/models
 * - backend/internal/dates
 * - github.com/redis/go-redis/v9 (cache invalidation + ready notification)
 *
 * @notes
 * - Idempotent: re-running for the same DateKey overwrites with equivalent content.
 * - Quote fetches fan out concurrently with a per-symbol failure boundary; a failed
 *   fetch degrades that symbol's price to NULL, it never blocks publication.
 *   The puzzle is marked ready even when every fetch fails.
 * - A missing API credential aborts the run before any fetch or write.
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/noka-project/backend/internal/dates"
	"github.com/noka-project/backend/internal/fmp"
	"github.com/noka-project/backend/internal/logger"
	"github.com/noka-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// PuzzleReadyChannel carries {"date_key": ...} events after a successful publish
	PuzzleReadyChannel = "puzzle:ready"
)

// ErrMissingAPIKey aborts a generator run before any fetch or write happens
var ErrMissingAPIKey = errors.New("puzzle generator: quote API key not configured")

// Candidate pairs a ticker with its fallback display name
type Candidate struct {
	Symbol string
	Name   string
}

// DefaultCandidates is the fixed six-symbol daily slate. Dynamic selection is
// deferred; see DESIGN.md.
var DefaultCandidates = []Candidate{
	{Symbol: "AAPL", Name: "Apple Inc."},
	{Symbol: "MSFT", Name: "Microsoft Corp."},
	{Symbol: "GOOGL", Name: "Alphabet Inc. (Class A)"},
	{Symbol: "AMZN", Name: "Amazon.com Inc."},
	{Symbol: "TSLA", Name: "Tesla, Inc."},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co."},
}

// PuzzleGenerator publishes the daily puzzle
type PuzzleGenerator struct {
	Store      PuzzleStore
	Redis      *redis.Client // optional; nil skips cache/notify
	Quotes     QuoteProvider
	Clock      dates.Clock
	Location   *time.Location
	APIKey     string
	Candidates []Candidate
}

func NewPuzzleGenerator(store PuzzleStore, rdb *redis.Client, quotes QuoteProvider, clock dates.Clock, loc *time.Location, apiKey string) *PuzzleGenerator {
	return &PuzzleGenerator{
		Store:      store,
		Redis:      rdb,
		Quotes:     quotes,
		Clock:      clock,
		Location:   loc,
		APIKey:     apiKey,
		Candidates: DefaultCandidates,
	}
}

// Run generates and publishes today's puzzle. Safe to invoke more than once
// for the same day.
func (g *PuzzleGenerator) Run(ctx context.Context) error {
	if strings.TrimSpace(g.APIKey) == "" {
		logger.Error("PuzzleGenerator: FMP_API_KEY not set, aborting run before any write")
		return ErrMissingAPIKey
	}

	todayKey := dates.TodayKey(g.Clock, g.Location)
	quotes := g.fetchQuotes(ctx)

	symbols := make(models.StringArray, 0, len(g.Candidates))
	companies := make([]models.DailyCompany, 0, len(g.Candidates))
	for _, cand := range g.Candidates {
		symbols = append(symbols, cand.Symbol)

		name := cand.Name
		if name == "" {
			name = cand.Symbol
		}
		var price *float64
		if quote := quotes[cand.Symbol]; quote != nil {
			if quote.Name != "" {
				name = quote.Name
			}
			price = quote.BestPrice()
		}

		companies = append(companies, models.DailyCompany{
			Symbol:  cand.Symbol,
			Name:    name,
			DateKey: todayKey,
			Price:   price,
			LogoURL: LogoURL(cand.Symbol),
		})
	}

	// Always ready: missing prices degrade to NULL rather than blocking the day
	puzzle := &models.Puzzle{
		DateKey: todayKey,
		Symbols: symbols,
		IsReady: true,
	}

	if err := g.Store.PublishDaily(ctx, puzzle, companies); err != nil {
		return fmt.Errorf("failed to publish daily puzzle batch for %s: %w", todayKey, err)
	}

	g.announce(ctx, todayKey)
	logger.Info("✅ Daily puzzle set for %s: %s", todayKey, strings.Join(symbols, ", "))
	return nil
}

// fetchQuotes requests every candidate's quote concurrently and joins the
// results. Each request succeeds or fails on its own.
func (g *PuzzleGenerator) fetchQuotes(ctx context.Context) map[string]*fmp.Quote {
	results := make([]*fmp.Quote, len(g.Candidates))

	var wg sync.WaitGroup
	for i, cand := range g.Candidates {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			quote, err := g.Quotes.GetQuote(ctx, symbol)
			if err != nil {
				logger.Error("PuzzleGenerator: quote fetch failed for %s: %v", symbol, err)
				return
			}
			results[i] = quote
		}(i, cand.Symbol)
	}
	wg.Wait()

	bySymbol := make(map[string]*fmp.Quote, len(g.Candidates))
	for i, cand := range g.Candidates {
		if results[i] != nil {
			bySymbol[cand.Symbol] = results[i]
		}
	}
	return bySymbol
}

// announce invalidates the day's cached view and notifies stream listeners.
// Best-effort: the batch is already committed, failures here are only logged.
func (g *PuzzleGenerator) announce(ctx context.Context, dateKey string) {
	if g.Redis == nil {
		return
	}
	if err := g.Redis.Del(ctx, viewCacheKey(dateKey)).Err(); err != nil {
		logger.Error("PuzzleGenerator: failed to invalidate view cache: %v", err)
	}
	payload, err := json.Marshal(map[string]string{"date_key": dateKey})
	if err != nil {
		return
	}
	if err := g.Redis.Publish(ctx, PuzzleReadyChannel, payload).Err(); err != nil {
		logger.Error("PuzzleGenerator: failed to publish ready event: %v", err)
	}
}

// LogoURL derives the logo reference from the lower-cased symbol with
// punctuation stripped (BRK.B -> brkb).
func LogoURL(symbol string) string {
	var b strings.Builder
	for _, r := range symbol {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return fmt.Sprintf("https://logo.clearbit.com/%s.com", b.String())
}
