package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/service"
	"github.com/vti-ops/timetable-api/pkg/response"
)

// TrainerHandler exposes teaching-staff registry endpoints.
type TrainerHandler struct {
	service *service.TrainerService
}

// NewTrainerHandler constructs a trainer handler.
func NewTrainerHandler(svc *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: svc}
}

// List godoc
// @Summary List trainers
// @Tags Trainers
// @Produce json
// @Param active query bool false "Only active trainers"
// @Success 200 {object} response.Envelope
// @Router /trainers [get]
func (h *TrainerHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	trainers, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainers, nil)
}

// Get godoc
// @Summary Get trainer detail
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /trainers/{id} [get]
func (h *TrainerHandler) Get(c *gin.Context) {
	trainer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainer, nil)
}
