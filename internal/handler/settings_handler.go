package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuserp/registry-api/internal/service"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
	"github.com/campuserp/registry-api/pkg/response"
)

// SettingsHandler exposes the maintenance mode toggle.
type SettingsHandler struct {
	access *service.AccessService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(access *service.AccessService) *SettingsHandler {
	return &SettingsHandler{access: access}
}

type maintenanceStatus struct {
	Enabled bool `json:"enabled"`
}

type maintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GetMaintenance godoc
// @Summary Get the maintenance mode flag
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/maintenance [get]
func (h *SettingsHandler) GetMaintenance(c *gin.Context) {
	enabled, err := h.access.MaintenanceMode(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, maintenanceStatus{Enabled: enabled})
}

// SetMaintenance godoc
// @Summary Enable or disable maintenance mode
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body maintenanceRequest true "Maintenance payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/maintenance [put]
func (h *SettingsHandler) SetMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.access.SetMaintenanceMode(c.Request.Context(), *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, maintenanceStatus{Enabled: *req.Enabled})
}
