package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/internal/service"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/response"
)

// TimetableHandler exposes timetable read, edit and export endpoints.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs the timetable handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// List godoc
// @Summary List timetable slots
// @Tags Timetable
// @Produce json
// @Param term_id query string false "Filter by term"
// @Param class_id query string false "Filter by class"
// @Param trainer_id query string false "Filter by trainer"
// @Param room_id query string false "Filter by room"
// @Param day query int false "Filter by day of week (1-7)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.TimetableFilter
	filter.TermID = c.Query("term_id")
	filter.ClassID = c.Query("class_id")
	filter.TrainerID = c.Query("trainer_id")
	filter.RoomID = c.Query("room_id")
	if day, err := strconv.Atoi(c.DefaultQuery("day", "0")); err == nil {
		filter.DayOfWeek = day
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	slots, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Weekly godoc
// @Summary Weekly timetable view for a term
// @Tags Timetable
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/timetable [get]
func (h *TimetableHandler) Weekly(c *gin.Context) {
	details, err := h.service.WeeklyView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// CreateSlot godoc
// @Summary Create a timetable slot manually
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ManualSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/slots [post]
func (h *TimetableHandler) CreateSlot(c *gin.Context) {
	var req dto.ManualSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.CreateSlot(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// UpdateSlot godoc
// @Summary Move or update a timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.ManualSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/slots/{id} [put]
func (h *TimetableHandler) UpdateSlot(c *gin.Context) {
	var req dto.ManualSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.UpdateSlot(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// DeleteSlot godoc
// @Summary Delete a timetable slot
// @Tags Timetable
// @Param id path string true "Slot ID"
// @Success 204
// @Router /timetable/slots/{id} [delete]
func (h *TimetableHandler) DeleteSlot(c *gin.Context) {
	if err := h.service.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Export a term timetable as CSV
// @Tags Timetable
// @Produce text/csv
// @Param id path string true "Term ID"
// @Success 200 {string} string "CSV content"
// @Router /terms/{id}/timetable/export/csv [get]
func (h *TimetableHandler) ExportCSV(c *gin.Context) {
	termID := c.Param("id")
	data, err := h.service.ExportCSV(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable-%s.csv"`, termID))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export a term timetable as PDF
// @Tags Timetable
// @Produce application/pdf
// @Param id path string true "Term ID"
// @Success 200 {string} string "PDF content"
// @Router /terms/{id}/timetable/export/pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	termID := c.Param("id")
	data, err := h.service.ExportPDF(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable-%s.pdf"`, termID))
	c.Data(http.StatusOK, "application/pdf", data)
}
