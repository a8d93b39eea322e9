package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/service"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/response"
)

// TeachingAssignmentHandler exposes the class-subject-trainer registry.
type TeachingAssignmentHandler struct {
	service *service.TeachingAssignmentService
}

// NewTeachingAssignmentHandler constructs an assignment handler.
func NewTeachingAssignmentHandler(svc *service.TeachingAssignmentService) *TeachingAssignmentHandler {
	return &TeachingAssignmentHandler{service: svc}
}

// ListByTerm godoc
// @Summary List teaching assignments in a term
// @Tags TeachingAssignments
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/assignments [get]
func (h *TeachingAssignmentHandler) ListByTerm(c *gin.Context) {
	assignments, err := h.service.ListByTerm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Create godoc
// @Summary Create teaching assignment
// @Tags TeachingAssignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *TeachingAssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// SetTrainer godoc
// @Summary Assign or clear the trainer on an assignment
// @Tags TeachingAssignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.SetTrainerRequest true "Trainer payload"
// @Success 204
// @Router /assignments/{id}/trainer [put]
func (h *TeachingAssignmentHandler) SetTrainer(c *gin.Context) {
	var req service.SetTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetTrainer(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete teaching assignment
// @Tags TeachingAssignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *TeachingAssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
