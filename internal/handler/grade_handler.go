package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuserp/registry-api/internal/service"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
	"github.com/campuserp/registry-api/pkg/response"
)

// GradeHandler exposes assessment entry, finalization, statistics and
// transcript endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

type assessmentRequest struct {
	StudentID string   `json:"student_id" binding:"required"`
	Quiz      *float64 `json:"quiz"`
	Midterm   *float64 `json:"midterm"`
	Final     *float64 `json:"final"`
}

// UpsertAssessment godoc
// @Summary Record assessment scores for a student in a section
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body assessmentRequest true "Component scores"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/assessments [put]
func (h *GradeHandler) UpsertAssessment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.grades.UpsertAssessment(c.Request.Context(), claims.UserID, claims.Role, service.UpsertAssessmentRequest{
		StudentID: req.StudentID,
		SectionID: c.Param("id"),
		Quiz:      req.Quiz,
		Midterm:   req.Midterm,
		Final:     req.Final,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Finalize godoc
// @Summary Finalize letter grades for a section
// @Tags Grades
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/finalize [post]
func (h *GradeHandler) Finalize(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.grades.FinalizeSection(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Statistics godoc
// @Summary Get score statistics and grade distribution for a section
// @Tags Grades
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/statistics [get]
func (h *GradeHandler) Statistics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.grades.SectionStatistics(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Transcript godoc
// @Summary Get a student's transcript with CGPA
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/transcript [get]
func (h *GradeHandler) Transcript(c *gin.Context) {
	transcript, err := h.grades.StudentTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript)
}

// CGPA godoc
// @Summary Get a student's cumulative GPA
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/cgpa [get]
func (h *GradeHandler) CGPA(c *gin.Context) {
	cgpa, err := h.grades.StudentCGPA(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": c.Param("id"), "cgpa": cgpa})
}
