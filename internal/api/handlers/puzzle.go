/**
 * @description
 * Daily Puzzle API Handlers.
 * Exposes the reconciled session view, the submission write, and the SSE
 * puzzle-ready stream.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/api/middleware
 */

package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/noka-project/backend/internal/api/middleware"
	"github.com/noka-project/backend/internal/logger"
	"github.com/noka-project/backend/internal/models"
	"github.com/noka-project/backend/internal/services"
	"gorm.io/gorm"
)

type PuzzleHandler struct {
	DB      *gorm.DB
	Session *services.PuzzleSession
}

func NewPuzzleHandler(db *gorm.DB, session *services.PuzzleSession) *PuzzleHandler {
	return &PuzzleHandler{DB: db, Session: session}
}

// SubmitRequest is the submission payload
type SubmitRequest struct {
	Predictions models.PredictionMap `json:"predictions"`
}

// GetToday returns the user's reconciled puzzle view
// GET /api/v1/puzzle/today
func (h *PuzzleHandler) GetToday(c *fiber.Ctx) error {
	user := h.currentUser(c)
	if user == nil {
		return nil
	}

	view, err := h.Session.State(c.Context(), user.ID)
	if err != nil {
		logger.Error("PuzzleHandler: failed to load state: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load today's puzzle",
		})
	}

	return c.JSON(view)
}

// SubmitPredictions locks in the user's picks for today
// POST /api/v1/puzzle/predictions
func (h *PuzzleHandler) SubmitPredictions(c *fiber.Ctx) error {
	user := h.currentUser(c)
	if user == nil {
		return nil
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Predictions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Predictions are required"})
	}

	view, err := h.Session.Submit(c.Context(), user.ID, req.Predictions)
	switch {
	case err == nil:
		return c.JSON(view)
	case errors.Is(err, services.ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Predictions already submitted for today",
			"view":  view,
		})
	case errors.Is(err, services.ErrPuzzleUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Today's puzzle is not available yet"})
	case errors.Is(err, services.ErrIncompleteSubmission), errors.Is(err, services.ErrUnknownSymbol):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Error("PuzzleHandler: failed to submit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save predictions",
		})
	}
}

// StreamReadyEvents relays puzzle-ready notifications over SSE. Clients refetch
// /puzzle/today on each event to move from unavailable to open.
// GET /api/v1/puzzle/stream
func (h *PuzzleHandler) StreamReadyEvents(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()

	ctx, cancel := context.WithCancel(context.Background())

	pubsub := h.Session.Redis.Subscribe(ctx, services.PuzzleReadyChannel)
	ch := pubsub.Channel()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			_ = pubsub.Close()
		}()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// currentUser resolves the authenticated identity to its user row.
// Writes the error response and returns nil when resolution fails.
func (h *PuzzleHandler) currentUser(c *fiber.Ctx) *models.User {
	clerkID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		return nil
	}

	var user models.User
	if err := h.DB.Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found; call /user/sync first"})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		return nil
	}
	return &user
}
