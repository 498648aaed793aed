package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campuserp/registry-api/internal/grading"
	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
	"github.com/campuserp/registry-api/pkg/export"
)

type transcriptProvider interface {
	StudentTranscript(ctx context.Context, studentID string) (*Transcript, error)
}

type rosterProvider interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.Enrollment, error)
}

// ExportFormat selects the rendering for report downloads.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService renders transcripts and section rosters as CSV or PDF
// downloads.
type ReportService struct {
	transcripts transcriptProvider
	enrollments rosterProvider
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(transcripts transcriptProvider, enrollments rosterProvider, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		transcripts: transcripts,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// TranscriptExport renders a student transcript in the requested format.
func (s *ReportService) TranscriptExport(ctx context.Context, studentID string, format ExportFormat) (*ExportFile, error) {
	transcript, err := s.transcripts.StudentTranscript(ctx, studentID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"Course", "Title", "Credits", "Grade", "Points"},
	}
	for _, entry := range transcript.Entries {
		data.Rows = append(data.Rows, map[string]string{
			"Course":  entry.CourseCode,
			"Title":   entry.CourseTitle,
			"Credits": strconv.Itoa(entry.Credits),
			"Grade":   entry.Letter,
			"Points":  fmt.Sprintf("%.1f", grading.GradePoints(entry.Letter)),
		})
	}

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("transcript-%s.csv", studentID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		summary := fmt.Sprintf("CGPA: %.2f", transcript.CGPA)
		content, err := s.pdf.Render(data, "Academic Transcript", summary)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("transcript-%s.pdf", studentID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// RosterExport renders a section roster in the requested format.
func (s *ReportService) RosterExport(ctx context.Context, sectionID string, format ExportFormat) (*ExportFile, error) {
	enrollments, err := s.enrollments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	data := export.Dataset{
		Headers: []string{"Student", "Status", "Final Grade"},
	}
	for _, enrollment := range enrollments {
		letter := grading.NotGraded
		if enrollment.FinalGrade != nil && *enrollment.FinalGrade != "" {
			letter = *enrollment.FinalGrade
		}
		data.Rows = append(data.Rows, map[string]string{
			"Student":     enrollment.StudentID,
			"Status":      string(enrollment.Status),
			"Final Grade": letter,
		})
	}

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s.csv", sectionID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, "Section Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s.pdf", sectionID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
