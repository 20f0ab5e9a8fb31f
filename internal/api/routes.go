/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noka-project/backend/internal/api/handlers"
	"github.com/noka-project/backend/internal/api/middleware"
	"github.com/noka-project/backend/internal/config"
	"github.com/noka-project/backend/internal/dates"
	"github.com/noka-project/backend/internal/services"
	"github.com/noka-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config, loc *time.Location) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// We don't panic here to allow app to start in dev modes without valid keys,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	puzzleStore := store.NewPostgres(db)
	session := services.NewPuzzleSession(puzzleStore, rdb, dates.SystemClock(), loc)

	// 3. Initialize Handlers
	userHandler := handlers.NewUserHandler(db)
	puzzleHandler := handlers.NewPuzzleHandler(db, session)

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Puzzle Routes
	puzzle := v1.Group("/puzzle")
	puzzle.Get("/stream", puzzleHandler.StreamReadyEvents)
	puzzle.Get("/today", middleware.Protected(), puzzleHandler.GetToday)
	puzzle.Post("/predictions", middleware.Protected(), puzzleHandler.SubmitPredictions)

	// User Routes (Protected)
	user := v1.Group("/user", middleware.Protected())
	user.Post("/sync", userHandler.SyncUser)
	user.Get("/me", userHandler.GetMe)
}
