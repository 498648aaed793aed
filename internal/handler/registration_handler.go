package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuserp/registry-api/internal/service"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
	"github.com/campuserp/registry-api/pkg/response"
)

// RegistrationHandler exposes section registration endpoints for
// students.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type registerRequest struct {
	SectionID string `json:"section_id" binding:"required"`
}

// Register godoc
// @Summary Register the current student into a section
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.registrations.Register(c.Request.Context(), claims.UserID, req.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop the current student's enrollment in a section
// @Tags Registrations
// @Produce json
// @Param sectionId path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{sectionId} [delete]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollment, err := h.registrations.Drop(c.Request.Context(), claims.UserID, c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Timetable godoc
// @Summary Get a student's active timetable
// @Tags Registrations
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/timetable [get]
func (h *RegistrationHandler) Timetable(c *gin.Context) {
	timetable, err := h.registrations.Timetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable)
}
