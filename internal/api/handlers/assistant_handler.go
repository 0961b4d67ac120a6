package handlers

import (
	"context"
	"errors"
	"strings"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/repository"
	"costlens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WorkspaceReader is the read side of the workspace exposed over HTTP.
type WorkspaceReader interface {
	Query(ctx context.Context, query string) (*models.QueryResult, error)
	Tables(ctx context.Context) ([]string, error)
	Schema(ctx context.Context) (map[string][]models.ColumnInfo, error)
}

type AssistantHandler struct {
	assistant *service.AssistantService
	workspace WorkspaceReader
	logger    *zap.Logger
}

func NewAssistantHandler(assistant *service.AssistantService, workspace WorkspaceReader, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		workspace: workspace,
		logger:    logger,
	}
}

// Ask godoc
// @Summary Ask a question about the cost data
// @Description Answers with SQL over the workspace when an LLM is configured, otherwise from canned insights
// @Tags assistant
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "Question"
// @Security Bearer
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} dto.AskResponse
// @Failure 500 {object} dto.AskResponse
// @Router /ask [post]
func (h *AssistantHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.assistant.Ask(c.UserContext(), req.Question)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No question provided",
			})
		}
		h.logger.Error("Ask failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(service.FailedAnswer(strings.TrimSpace(req.Question), err))
	}

	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.JSON(resp)
}

// Query godoc
// @Summary Run a read-only SQL query
// @Tags workspace
// @Accept json
// @Produce json
// @Param request body dto.QueryRequest true "SELECT statement"
// @Security Bearer
// @Success 200 {object} models.QueryResult
// @Failure 400 {object} map[string]string
// @Router /query [post]
func (h *AssistantHandler) Query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No query provided",
		})
	}

	result, err := h.workspace.Query(c.UserContext(), req.Query)
	if err != nil {
		if errors.Is(err, repository.ErrReadOnlyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Only SELECT queries are allowed",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// Schema godoc
// @Summary Workspace schema
// @Tags workspace
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SchemaResponse
// @Failure 500 {object} map[string]string
// @Router /schema [get]
func (h *AssistantHandler) Schema(c *fiber.Ctx) error {
	schema, err := h.workspace.Schema(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to read schema", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read schema",
		})
	}
	return c.JSON(dto.SchemaResponse{Schema: schema})
}

// Tables godoc
// @Summary Workspace tables
// @Tags workspace
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.TablesResponse
// @Failure 500 {object} map[string]string
// @Router /tables [get]
func (h *AssistantHandler) Tables(c *fiber.Ctx) error {
	tables, err := h.workspace.Tables(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list tables", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tables",
		})
	}
	if tables == nil {
		tables = []string{}
	}
	return c.JSON(dto.TablesResponse{Tables: tables})
}
