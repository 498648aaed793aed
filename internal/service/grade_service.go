package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuserp/registry-api/internal/grading"
	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type gradeSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type gradeEnrollmentStore interface {
	FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Enrollment, error)
	ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	SetFinalGrade(ctx context.Context, id, letter string) error
}

type assessmentStore interface {
	FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.AssessmentRecord, error)
	MapBySection(ctx context.Context, sectionID string) (map[string]*models.AssessmentRecord, error)
	Upsert(ctx context.Context, record *models.AssessmentRecord) error
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// UpsertAssessmentRequest carries component scores for one student in
// one section. Omitted components keep their stored values.
type UpsertAssessmentRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	SectionID string   `json:"section_id" validate:"required"`
	Quiz      *float64 `json:"quiz" validate:"omitempty,gte=0,lte=20"`
	Midterm   *float64 `json:"midterm" validate:"omitempty,gte=0,lte=30"`
	Final     *float64 `json:"final" validate:"omitempty,gte=0,lte=50"`
}

// FinalizeResult summarises a section finalization pass.
type FinalizeResult struct {
	Finalized int `json:"finalized"`
	Skipped   int `json:"skipped"`
}

// TranscriptEntry is one completed course on a transcript.
type TranscriptEntry struct {
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	Credits     int    `json:"credits"`
	Letter      string `json:"letter"`
}

// Transcript is the full graded history of a student plus CGPA.
type Transcript struct {
	StudentID string            `json:"student_id"`
	Entries   []TranscriptEntry `json:"entries"`
	CGPA      float64           `json:"cgpa"`
}

// GradeService orchestrates assessment entry, grade finalization,
// transcripts and section statistics on top of the pure grading rules.
type GradeService struct {
	sections    gradeSectionReader
	enrollments gradeEnrollmentStore
	assessments assessmentStore
	gate        writeGate
	cache       statsCache
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(sections gradeSectionReader, enrollments gradeEnrollmentStore, assessments assessmentStore, gate writeGate, cache statsCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &GradeService{
		sections:    sections,
		enrollments: enrollments,
		assessments: assessments,
		gate:        gate,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

func statsCacheKey(sectionID string) string {
	return "stats:section:" + sectionID
}

// loadOwnedSection resolves a section and enforces that instructors only
// touch their own sections; admins bypass the ownership check.
func (s *GradeService) loadOwnedSection(ctx context.Context, sectionID, callerID string, role models.UserRole) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if role != models.RoleAdmin {
		if section.InstructorID == nil || *section.InstructorID != callerID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "section is not assigned to you")
		}
	}
	return section, nil
}

// UpsertAssessment records component scores entered by the section's
// instructor, merging provided components over the stored record.
func (s *GradeService) UpsertAssessment(ctx context.Context, callerID string, role models.UserRole, req UpsertAssessmentRequest) (*models.AssessmentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if err := s.gate.CheckWrite(ctx, role); err != nil {
		return nil, err
	}
	if _, err := s.loadOwnedSection(ctx, req.SectionID, callerID, role); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByStudentAndSection(ctx, req.StudentID, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDropped {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment has been dropped")
	}

	record, err := s.assessments.FindByStudentAndSection(ctx, req.StudentID, req.SectionID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment record")
		}
		record = &models.AssessmentRecord{StudentID: req.StudentID, SectionID: req.SectionID}
	}
	if req.Quiz != nil {
		record.Quiz = req.Quiz
	}
	if req.Midterm != nil {
		record.Midterm = req.Midterm
	}
	if req.Final != nil {
		record.Final = req.Final
	}

	if err := s.assessments.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assessment record")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, statsCacheKey(req.SectionID))
	}
	return record, nil
}

// FinalizeSection computes and records the final letter grade for every
// enrollment in the section whose assessment record is complete,
// transitioning those enrollments to COMPLETED. Incomplete records are
// skipped and counted.
func (s *GradeService) FinalizeSection(ctx context.Context, callerID string, role models.UserRole, sectionID string) (*FinalizeResult, error) {
	if err := s.gate.CheckWrite(ctx, role); err != nil {
		return nil, err
	}
	if _, err := s.loadOwnedSection(ctx, sectionID, callerID, role); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	records, err := s.assessments.MapBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment records")
	}

	result := &FinalizeResult{}
	for _, enrollment := range enrollments {
		record := records[enrollment.StudentID]
		if !grading.IsComplete(record) {
			result.Skipped++
			continue
		}
		letter := grading.LetterGrade(grading.TotalScore(record))
		if err := s.enrollments.SetFinalGrade(ctx, enrollment.ID, letter); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record final grade")
		}
		result.Finalized++
	}

	if s.cache != nil {
		s.cache.Delete(ctx, statsCacheKey(sectionID))
	}
	s.logger.Info("section grades finalized",
		zap.String("section_id", sectionID),
		zap.Int("finalized", result.Finalized),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// SectionStatistics aggregates section-level score statistics and the
// letter distribution, cached with a short TTL.
func (s *GradeService) SectionStatistics(ctx context.Context, callerID string, role models.UserRole, sectionID string) (*grading.ClassStatistics, error) {
	if _, err := s.loadOwnedSection(ctx, sectionID, callerID, role); err != nil {
		return nil, err
	}

	key := statsCacheKey(sectionID)
	if s.cache != nil {
		var cached grading.ClassStatistics
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	enrollments, err := s.enrollments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	records, err := s.assessments.MapBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment records")
	}

	stats := grading.ComputeClassStatistics(enrollments, records)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache section statistics", zap.String("section_id", sectionID), zap.Error(err))
		}
	}
	return &stats, nil
}

// StudentTranscript lists a student's completed courses with final
// letters and the credit-weighted CGPA.
func (s *GradeService) StudentTranscript(ctx context.Context, studentID string) (*Transcript, error) {
	completed, err := s.enrollments.ListByStudentAndStatus(ctx, studentID, models.EnrollmentStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	transcript := &Transcript{StudentID: studentID}
	var credited []grading.CreditedGrade
	for _, enrollment := range completed {
		if enrollment.FinalGrade == nil || *enrollment.FinalGrade == "" {
			continue
		}
		transcript.Entries = append(transcript.Entries, TranscriptEntry{
			CourseCode:  enrollment.CourseCode,
			CourseTitle: enrollment.CourseTitle,
			Credits:     enrollment.Credits,
			Letter:      *enrollment.FinalGrade,
		})
		credited = append(credited, grading.CreditedGrade{Letter: *enrollment.FinalGrade, Credits: enrollment.Credits})
	}
	transcript.CGPA = grading.CGPA(credited)
	return transcript, nil
}

// StudentCGPA returns only the CGPA figure.
func (s *GradeService) StudentCGPA(ctx context.Context, studentID string) (float64, error) {
	transcript, err := s.StudentTranscript(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return transcript.CGPA, nil
}
