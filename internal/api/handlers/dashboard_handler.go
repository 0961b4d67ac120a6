package handlers

import (
	"errors"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/service"
	"costlens/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const sampleCSVName = "sample-aws-costs.csv"

type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// State godoc
// @Summary Dashboard state
// @Description Cost records, anomalies, recommendations, chat history and the loading flag
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DashboardState
// @Router /api/v1/costs [get]
func (h *DashboardHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.State())
}

// LoadMockData godoc
// @Summary Load demo data
// @Description Replace the dashboard data with 90 days of generated spend
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DashboardState
// @Failure 409 {object} map[string]string
// @Router /api/v1/costs/mock [post]
func (h *DashboardHandler) LoadMockData(c *fiber.Ctx) error {
	state, err := h.dashboard.LoadMockData(c.UserContext())
	if err != nil {
		if errors.Is(err, store.ErrBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Another request is in progress",
			})
		}
		h.logger.Error("Failed to load mock data", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load mock data",
		})
	}
	return c.JSON(state)
}

// Reset godoc
// @Summary Clear the dashboard
// @Tags dashboard
// @Security Bearer
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /api/v1/state [delete]
func (h *DashboardHandler) Reset(c *fiber.Ctx) error {
	if err := h.dashboard.Reset(); err != nil {
		if errors.Is(err, store.ErrBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Another request is in progress",
			})
		}
		h.logger.Error("Failed to reset state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reset state",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Overview godoc
// @Summary Month-over-month overview
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.OverviewResponse
// @Router /api/v1/overview [get]
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Overview())
}

// Trends godoc
// @Summary Daily cost trend
// @Tags dashboard
// @Produce json
// @Param days query int false "Number of most recent days" default(30)
// @Security Bearer
// @Success 200 {array} dto.TrendPoint
// @Router /api/v1/trends [get]
func (h *DashboardHandler) Trends(c *fiber.Ctx) error {
	points := h.dashboard.Trend(c.QueryInt("days", service.DefaultTrendDays))
	if points == nil {
		points = []dto.TrendPoint{}
	}
	return c.JSON(points)
}

// Services godoc
// @Summary Current-month spend per service
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.ServiceSlice
// @Router /api/v1/services [get]
func (h *DashboardHandler) Services(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Services())
}

// Resources godoc
// @Summary Current-month spend per resource
// @Tags dashboard
// @Produce json
// @Param service query string false "Service filter, all for every service"
// @Param search query string false "Case-insensitive search over id, service and region"
// @Param limit query int false "Maximum rows" default(50)
// @Security Bearer
// @Success 200 {object} dto.ResourceTableResponse
// @Router /api/v1/resources [get]
func (h *DashboardHandler) Resources(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Resources(
		c.Query("service"),
		c.Query("search"),
		c.QueryInt("limit", service.DefaultResourceLimit),
	))
}

// Forecast godoc
// @Summary Cost forecast
// @Tags dashboard
// @Produce json
// @Param horizon query int false "Days to project" default(30)
// @Security Bearer
// @Success 200 {object} dto.ForecastResponse
// @Router /api/v1/forecast [get]
func (h *DashboardHandler) Forecast(c *fiber.Ctx) error {
	forecast, err := h.dashboard.Forecast(c.UserContext(), c.QueryInt("horizon", service.DefaultForecastHorizon))
	if err != nil {
		return err
	}
	return c.JSON(forecast)
}

// Anomalies godoc
// @Summary Detected anomalies
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {array} models.Anomaly
// @Router /api/v1/anomalies [get]
func (h *DashboardHandler) Anomalies(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Anomalies())
}

// Recommendations godoc
// @Summary Savings recommendations
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {array} models.Recommendation
// @Router /api/v1/recommendations [get]
func (h *DashboardHandler) Recommendations(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Recommendations())
}

// UpdateRecommendation godoc
// @Summary Implement or ignore a recommendation
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path string true "Recommendation ID"
// @Param request body dto.UpdateRecommendationRequest true "New status: implemented or ignored"
// @Security Bearer
// @Success 200 {object} models.Recommendation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/recommendations/{id} [patch]
func (h *DashboardHandler) UpdateRecommendation(c *fiber.Ctx) error {
	var req dto.UpdateRecommendationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	status := models.RecommendationStatus(req.Status)
	if !status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	rec, err := h.dashboard.UpdateRecommendationStatus(c.Params("id"), status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecommendationNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recommendation not found",
			})
		case errors.Is(err, store.ErrInvalidStatusTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Only pending recommendations can be implemented or ignored",
			})
		}
		return err
	}

	return c.JSON(rec)
}

// SampleCSV godoc
// @Summary Download a sample billing CSV
// @Tags dashboard
// @Produce text/csv
// @Security Bearer
// @Success 200 {file} file
// @Router /api/v1/sample.csv [get]
func (h *DashboardHandler) SampleCSV(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+sampleCSVName+`"`)
	return c.Send(h.dashboard.SampleCSV())
}
