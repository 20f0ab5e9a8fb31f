/**
 * @description
 * Puzzle Generator entry point.
 * Default mode runs once and exits, which is what an external cron/scheduler
 * invokes at the configured local time (01:00 America/New_York by default).
 * The -loop flag keeps the process alive and fires at that time itself, for
 * environments without a cron.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/fmp
 * - backend/internal/services
 * - backend/internal/store
 *
 * @notes
 * - A failed run is only logged; the next scheduled run retries naturally.
 * - Each run is bounded by a timeout so a wedged gateway can't hold the slot.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noka-project/backend/internal/config"
	"github.com/noka-project/backend/internal/dates"
	"github.com/noka-project/backend/internal/db"
	"github.com/noka-project/backend/internal/fmp"
	"github.com/noka-project/backend/internal/logger"
	"github.com/noka-project/backend/internal/services"
	"github.com/noka-project/backend/internal/store"
)

const runTimeout = 2 * time.Minute

func main() {
	loop := flag.Bool("loop", false, "keep running and fire at the configured local time")
	flag.Parse()

	logger.Info("🔥 Starting NOKA puzzle generator...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to resolve puzzle timezone: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	puzzleStore := store.NewPostgres(pgDB)
	if err := puzzleStore.AutoMigrate(); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	clock := dates.SystemClock()
	quotes := fmp.NewClient(cfg)
	generator := services.NewPuzzleGenerator(puzzleStore, redisClient, quotes, clock, loc, cfg.Market.FMPAPIKey)

	if !*loop {
		if err := runOnce(generator); err != nil {
			os.Exit(1)
		}
		return
	}

	// 4. Loop mode: sleep until the configured local time, fire, repeat
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		next, err := dates.NextOccurrence(clock.Now(), loc, cfg.Puzzle.GenerateAt)
		if err != nil {
			logger.Fatal("Invalid schedule: %v", err)
		}
		logger.Info("Next puzzle generation at %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			logger.Info("Generator shutdown")
			return
		case <-time.After(time.Until(next)):
			// Failures are logged and swallowed: the next slot retries naturally
			_ = runOnce(generator)
		}
	}
}

func runOnce(generator *services.PuzzleGenerator) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := generator.Run(ctx); err != nil {
		if errors.Is(err, services.ErrMissingAPIKey) {
			// Already logged inside Run; nothing was written
			return err
		}
		logger.Error("Puzzle generation failed: %v", err)
		return err
	}
	return nil
}
