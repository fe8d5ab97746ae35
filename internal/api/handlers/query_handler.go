package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

// QueryTextKey is the fiber local holding the validated question text.
const QueryTextKey = "query_text"

const maxHistoryLimit = 500

// Answerer is the part of the query engine the HTTP surface uses.
type Answerer interface {
	ProcessQuery(ctx context.Context, text string) *query.Envelope
	DataSummary(ctx context.Context) (*query.Summary, error)
	History(ctx context.Context, limit int) ([]models.QueryLogEntry, error)
}

type QueryHandler struct {
	engine       Answerer
	historyLimit int
}

func NewQueryHandler(engine Answerer, historyLimit int) *QueryHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &QueryHandler{engine: engine, historyLimit: historyLimit}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	text, ok := c.Locals(QueryTextKey).(string)
	if !ok {
		var req struct {
			Query string `json:"query"`
		}
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Failed to parse request body", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		text = strings.TrimSpace(req.Query)
	}

	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	return c.JSON(h.engine.ProcessQuery(c.UserContext(), text))
}

func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.historyLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 500",
		})
	}

	entries, err := h.engine.History(c.UserContext(), limit)
	if err != nil {
		logger.Error("Failed to get query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get query history",
		})
	}

	return c.JSON(fiber.Map{
		"history": entries,
		"count":   len(entries),
	})
}

func (h *QueryHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.engine.DataSummary(c.UserContext())
	if err != nil {
		logger.Error("Failed to get data summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get data summary",
		})
	}
	return c.JSON(summary)
}
