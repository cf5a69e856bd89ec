package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/middleware/validation"
	"github.com/student-bot/backend/internal/storage/models"
	"github.com/student-bot/backend/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryStore persists answered queries. Recording is best effort.
type HistoryStore interface {
	InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error
	GetQueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error)
}

type QueryHandler struct {
	engine  Resolver
	history HistoryStore
}

// NewQueryHandler wires the HTTP query routes. history may be nil.
func NewQueryHandler(engine Resolver, history HistoryStore) *QueryHandler {
	return &QueryHandler{
		engine:  engine,
		history: history,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if sanitized, ok := c.Locals(validation.LocalsQuery).(string); ok {
		req.Query = sanitized
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	record := h.answer(c.UserContext(), req.Query, req.UserID)

	return c.JSON(fiber.Map{
		"id":         record.ID,
		"query":      record.QueryText,
		"response":   record.Response,
		"intent":     record.Intent,
		"cached":     record.CacheHit,
		"latency_ms": record.LatencyMS,
	})
}

// answer resolves text and records the exchange.
func (h *QueryHandler) answer(ctx context.Context, text, userID string) *models.QueryRecord {
	start := time.Now()
	res := h.engine.Resolve(ctx, text)

	record := &models.QueryRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		QueryText: text,
		Response:  res.Response,
		CacheHit:  res.CacheHit,
		LatencyMS: int(time.Since(start).Milliseconds()),
		CreatedAt: time.Now().UTC(),
	}
	if !res.CacheHit {
		record.Intent = res.Intent.String()
	}

	if h.history != nil {
		if err := h.history.InsertQueryRecord(ctx, record); err != nil {
			logger.Warn("Failed to record query", zap.String("id", record.ID), zap.Error(err))
		}
	}

	return record
}

func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Query history is not enabled",
		})
	}

	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	history, err := h.history.GetQueryHistory(c.UserContext(), c.Query("user_id"), limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}
	if history == nil {
		history = []models.QueryRecord{}
	}

	return c.JSON(fiber.Map{
		"history": history,
	})
}

func (h *QueryHandler) InvalidateCache(c *fiber.Ctx) error {
	if err := h.engine.InvalidateCache(c.UserContext()); err != nil {
		logger.Error("Failed to invalidate cache", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to invalidate cache",
		})
	}

	return c.JSON(fiber.Map{
		"status": "invalidated",
	})
}
