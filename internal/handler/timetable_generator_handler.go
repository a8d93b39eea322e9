package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/dto"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/response"
)

type preflightService interface {
	Run(ctx context.Context, termID string) (*dto.PreflightReport, error)
}

type generatorService interface {
	Generate(ctx context.Context, termID string, req *dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

// TimetableGeneratorHandler exposes the preflight and generation endpoints.
type TimetableGeneratorHandler struct {
	preflight preflightService
	generator generatorService
}

// NewTimetableGeneratorHandler constructs the generator handler.
func NewTimetableGeneratorHandler(preflight preflightService, generator generatorService) *TimetableGeneratorHandler {
	return &TimetableGeneratorHandler{preflight: preflight, generator: generator}
}

// Preflight godoc
// @Summary Run the generation preflight report for a term
// @Tags Timetable
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{id}/timetable/preflight [get]
func (h *TimetableGeneratorHandler) Preflight(c *gin.Context) {
	report, err := h.preflight.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Generate godoc
// @Summary Generate the timetable for a term
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body dto.GenerateTimetableRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /terms/{id}/timetable/generate [post]
func (h *TimetableGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.generator.Generate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
