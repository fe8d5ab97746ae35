package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/pkg/logger"
)

// FloatBrowser reads individual floats for the map and profile views.
type FloatBrowser interface {
	GetFloatTrajectory(ctx context.Context, floatID string) (*argo.Result, error)
	GetMeasurementsByProfile(ctx context.Context, floatID string, cycle int) (*argo.Result, error)
}

type FloatHandler struct {
	store FloatBrowser
}

func NewFloatHandler(store FloatBrowser) *FloatHandler {
	return &FloatHandler{store: store}
}

func (h *FloatHandler) GetTrajectory(c *fiber.Ctx) error {
	floatID := c.Params("id")

	track, err := h.store.GetFloatTrajectory(c.UserContext(), floatID)
	if err != nil {
		logger.Error("Failed to get float trajectory", zap.String("float_id", floatID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get float trajectory",
		})
	}
	if track.Empty() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No trajectory found for float " + floatID,
		})
	}

	return c.JSON(fiber.Map{
		"float_id": floatID,
		"points":   track.Rows,
	})
}

func (h *FloatHandler) GetProfileMeasurements(c *fiber.Ctx) error {
	floatID := c.Params("id")
	cycle, err := c.ParamsInt("cycle")
	if err != nil || cycle < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cycle must be a non-negative integer",
		})
	}

	levels, err := h.store.GetMeasurementsByProfile(c.UserContext(), floatID, cycle)
	if err != nil {
		logger.Error("Failed to get profile measurements",
			zap.String("float_id", floatID),
			zap.Int("cycle", cycle),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get profile measurements",
		})
	}

	if levels == nil {
		levels = &argo.Result{}
	}

	return c.JSON(fiber.Map{
		"float_id":     floatID,
		"cycle_number": cycle,
		"columns":      levels.Columns,
		"measurements": levels.Rows,
	})
}
