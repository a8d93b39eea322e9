package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/middleware"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/internal/service"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/response"
)

// ConfigurationHandler exposes the generation lockout admin endpoints.
type ConfigurationHandler struct {
	lockout *service.GenerationLockoutService
}

// NewConfigurationHandler constructs a configuration handler.
func NewConfigurationHandler(lockout *service.GenerationLockoutService) *ConfigurationHandler {
	return &ConfigurationHandler{lockout: lockout}
}

// GetLockout godoc
// @Summary Get the timetable generation lockout state
// @Tags Configuration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /configurations/timetable-lockout [get]
func (h *ConfigurationHandler) GetLockout(c *gin.Context) {
	state, err := h.lockout.Check(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SetLockout godoc
// @Summary Set or clear the timetable generation lockout
// @Tags Configuration
// @Accept json
// @Produce json
// @Param payload body dto.LockoutRequest true "Lockout payload"
// @Success 200 {object} response.Envelope
// @Router /configurations/timetable-lockout [put]
func (h *ConfigurationHandler) SetLockout(c *gin.Context) {
	var req dto.LockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	updatedBy := ""
	if claimsValue, ok := c.Get(middleware.ContextUserKey); ok {
		if claims, ok := claimsValue.(*models.JWTClaims); ok {
			updatedBy = claims.UserID
		}
	}

	state, err := h.lockout.Set(c.Request.Context(), &req, updatedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
