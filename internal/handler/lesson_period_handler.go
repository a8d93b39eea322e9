package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/service"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/response"
)

// LessonPeriodHandler exposes the daily period grid endpoints.
type LessonPeriodHandler struct {
	service *service.LessonPeriodService
}

// NewLessonPeriodHandler constructs a lesson period handler.
func NewLessonPeriodHandler(svc *service.LessonPeriodService) *LessonPeriodHandler {
	return &LessonPeriodHandler{service: svc}
}

// List godoc
// @Summary List lesson periods
// @Tags LessonPeriods
// @Produce json
// @Param active query bool false "Only active periods"
// @Success 200 {object} response.Envelope
// @Router /lesson-periods [get]
func (h *LessonPeriodHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	periods, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Create godoc
// @Summary Create lesson period
// @Tags LessonPeriods
// @Accept json
// @Produce json
// @Param payload body service.LessonPeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /lesson-periods [post]
func (h *LessonPeriodHandler) Create(c *gin.Context) {
	var req service.LessonPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update lesson period
// @Tags LessonPeriods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body service.LessonPeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /lesson-periods/{id} [put]
func (h *LessonPeriodHandler) Update(c *gin.Context) {
	var req service.LessonPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
