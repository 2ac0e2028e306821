package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/internal/service"
)

type StatementHandler struct {
	stmtService   *service.StatementService
	maxUploadSize int64
	logger        *zap.Logger
}

func NewStatementHandler(stmtService *service.StatementService, maxUploadSize int64, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		stmtService:   stmtService,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// UploadStatement accepts a multipart PDF upload, runs the extraction
// pipeline and returns the full table with its summary.
func (h *StatementHandler) UploadStatement(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}
	if file.Size > h.maxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadSize/(1024*1024)),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	resp, err := h.stmtService.ProcessStatement(c.Context(), src, file.Filename)
	if err != nil {
		h.logger.Error("Failed to process statement",
			zap.String("file", file.Filename),
			zap.Error(err),
		)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetStatement returns the (optionally filtered) view of a stored statement.
func (h *StatementHandler) GetStatement(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid statement ID",
		})
	}

	filter, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp, err := h.stmtService.GetStatement(id, filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

// ExportStatement streams the filtered view as an XLSX download.
func (h *StatementHandler) ExportStatement(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid statement ID",
		})
	}

	filter, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	data, name, err := h.stmtService.ExportStatement(id, filter)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Send(data)
}

// parseFilter reads the type/from/to query parameters. Dates are inclusive
// calendar days in ISO format.
func parseFilter(c *fiber.Ctx) (models.Filter, error) {
	var filter models.Filter

	if v := c.Query("type"); v != "" {
		t, ok := models.ParseTransactionType(v)
		if !ok {
			return filter, fmt.Errorf("invalid type %q: want credit or debit", v)
		}
		filter.Type = &t
	}
	if v := c.Query("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", v)
		}
		filter.From = &d
	}
	if v := c.Query("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", v)
		}
		filter.To = &d
	}

	return filter, nil
}

// respondError maps the failure taxonomy onto HTTP statuses. Everything the
// user can act on is 4xx; upstream trouble that might clear is 502/503.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnreadablePDF),
		errors.Is(err, models.ErrMalformedResponse):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrStatementNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrExport):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrAuthentication),
		errors.Is(err, models.ErrUpstreamRefusal):
		status = fiber.StatusBadGateway
	case errors.Is(err, models.ErrRateLimited),
		errors.Is(err, models.ErrTransientNetwork):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
