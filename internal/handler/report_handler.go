package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuserp/registry-api/internal/service"
	"github.com/campuserp/registry-api/pkg/response"
)

// ReportHandler serves transcript and roster downloads.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func sendExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// TranscriptExport godoc
// @Summary Download a student transcript as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string true "Export format (csv, pdf)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /students/{id}/transcript/export [get]
func (h *ReportHandler) TranscriptExport(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	file, err := h.reports.TranscriptExport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, file)
}

// RosterExport godoc
// @Summary Download a section roster as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Section ID"
// @Param format query string true "Export format (csv, pdf)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /sections/{id}/roster/export [get]
func (h *ReportHandler) RosterExport(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	file, err := h.reports.RosterExport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, file)
}
