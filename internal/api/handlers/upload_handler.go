package handlers

import (
	"errors"

	"costlens/internal/repository"
	"costlens/internal/service"
	"costlens/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultUploadsLimit = 20
	maxUploadsLimit     = 100
)

type UploadHandler struct {
	uploadService *service.UploadService
	importService *service.CostExplorerService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *service.UploadService, importService *service.CostExplorerService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		importService: importService,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload a billing CSV
// @Description Parse an AWS cost CSV, load it into the workspace and analyze it
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param table_name formData string false "Workspace table for the raw rows" default(cost_data)
// @Security Bearer
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}
	if file.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	resp, err := h.uploadService.Upload(c.UserContext(), src, file.Filename, c.FormValue("table_name"))
	if err != nil {
		return h.ingestError(c, err)
	}

	return c.JSON(resp)
}

// ImportCostExplorer godoc
// @Summary Import from AWS Cost Explorer
// @Description Fetch daily spend per service and region and run it through the upload pipeline
// @Tags upload
// @Produce json
// @Param days query int false "Days of history" default(30)
// @Security Bearer
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/import/aws [post]
func (h *UploadHandler) ImportCostExplorer(c *fiber.Ctx) error {
	resp, err := h.importService.Import(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "AWS Cost Explorer import is disabled",
			})
		case errors.Is(err, service.ErrInvalidImportRange):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrNoValidData):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No cost data returned by AWS Cost Explorer",
			})
		}
		return h.ingestError(c, err)
	}

	return c.JSON(resp)
}

// ListUploads godoc
// @Summary List uploads
// @Description Upload log, newest first
// @Tags upload
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.UploadLogEntry
// @Failure 500 {object} map[string]string
// @Router /api/v1/uploads [get]
func (h *UploadHandler) ListUploads(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultUploadsLimit)
	if limit <= 0 || limit > maxUploadsLimit {
		limit = defaultUploadsLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.uploadService.ListUploads(c.UserContext(), uint64(limit), uint64(offset))
	if err != nil {
		h.logger.Error("Failed to list uploads", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list uploads",
		})
	}

	return c.JSON(entries)
}

func (h *UploadHandler) ingestError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoFile):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	case errors.Is(err, service.ErrNoFileSelected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file selected"})
	case errors.Is(err, service.ErrInvalidFileType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file type. Only CSV files allowed"})
	case errors.Is(err, service.ErrNoValidData):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid cost data found in CSV. Please check column names and data format.",
		})
	case errors.Is(err, repository.ErrInvalidTableName):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table name"})
	case errors.Is(err, store.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Another request is in progress"})
	}

	h.logger.Error("Failed to process cost data", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Error processing file: " + err.Error(),
	})
}
