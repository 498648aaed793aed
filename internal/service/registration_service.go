package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuserp/registry-api/internal/models"
	"github.com/campuserp/registry-api/internal/schedule"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type registrationSectionStore interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	TryIncrementEnrolled(ctx context.Context, id string) (bool, error)
	DecrementEnrolled(ctx context.Context, id string) error
}

type registrationEnrollmentStore interface {
	FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Reactivate(ctx context.Context, id string) error
	MarkDropped(ctx context.Context, id string, droppedAt time.Time) error
}

type writeGate interface {
	CheckWrite(ctx context.Context, role models.UserRole) error
}

type registrationMetrics interface {
	RecordRegistration(outcome string)
	RecordDrop(outcome string)
}

// RegistrationService orchestrates enrollment and drop decisions: the
// maintenance gate, section state and capacity rules, and schedule clash
// detection against the student's current timetable.
type RegistrationService struct {
	sections    registrationSectionStore
	enrollments registrationEnrollmentStore
	gate        writeGate
	cache       statsCacheInvalidator
	metrics     registrationMetrics
	logger      *zap.Logger
	now         func() time.Time
}

type statsCacheInvalidator interface {
	Delete(ctx context.Context, keys ...string)
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(sections registrationSectionStore, enrollments registrationEnrollmentStore, gate writeGate, cache statsCacheInvalidator, metrics registrationMetrics, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		sections:    sections,
		enrollments: enrollments,
		gate:        gate,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register enrolls a student into a section. Checks run in a fixed
// order and short-circuit on the first failure; nothing is written until
// every check has passed, so a rejected registration never mutates
// state.
func (s *RegistrationService) Register(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	enrollment, err := s.register(ctx, studentID, sectionID)
	s.observeRegistration(err)
	return enrollment, err
}

func (s *RegistrationService) register(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	if err := s.gate.CheckWrite(ctx, models.RoleStudent); err != nil {
		return nil, err
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	existing, err := s.enrollments.FindByStudentAndSection(ctx, studentID, sectionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if existing != nil && existing.Status == models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this section")
	}

	if section.Status != models.SectionStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is closed, registration not available")
	}

	if !section.HasSeats() {
		return nil, appErrors.Clone(appErrors.ErrSectionFull, fmt.Sprintf("section is full (capacity %d)", section.Capacity))
	}

	if err := s.checkScheduleClash(ctx, studentID, section); err != nil {
		return nil, err
	}

	// Reserve the seat with the conditional increment before writing the
	// enrollment row; a concurrent registration that takes the last seat
	// makes the reserve fail and we report the section full.
	reserved, err := s.sections.TryIncrementEnrolled(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}
	if !reserved {
		return nil, appErrors.Clone(appErrors.ErrSectionFull, fmt.Sprintf("section is full (capacity %d)", section.Capacity))
	}

	enrollment, err := s.writeEnrollment(ctx, studentID, sectionID, existing)
	if err != nil {
		if decErr := s.sections.DecrementEnrolled(ctx, sectionID); decErr != nil {
			s.logger.Error("failed to release reserved seat", zap.String("section_id", sectionID), zap.Error(decErr))
		}
		return nil, err
	}

	s.invalidateStats(ctx, sectionID)
	s.logger.Info("student registered",
		zap.String("student_id", studentID),
		zap.String("section_id", sectionID),
		zap.String("course_code", section.CourseCode),
	)
	return enrollment, nil
}

// checkScheduleClash compares the target section's schedule against each
// section backing the student's active enrollments, in enrollment
// listing order, and reports the first clash found. Unscheduled or
// unparseable timetables carry no conflict information and never block.
func (s *RegistrationService) checkScheduleClash(ctx context.Context, studentID string, section *models.Section) error {
	if schedule.IsUnscheduled(section.ScheduleText) {
		return nil
	}
	target, ok := schedule.ParseSlot(section.ScheduleText)
	if !ok {
		return nil
	}

	active, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current enrollments")
	}

	for _, enrolled := range active {
		if schedule.IsUnscheduled(enrolled.ScheduleText) {
			continue
		}
		slot, ok := schedule.ParseSlot(enrolled.ScheduleText)
		if !ok {
			continue
		}
		if schedule.Conflicts(target, slot) {
			return appErrors.Clone(appErrors.ErrScheduleConflict,
				fmt.Sprintf("time clash with %s at %s", enrolled.CourseCode, enrolled.ScheduleText))
		}
	}
	return nil
}

// writeEnrollment reactivates the dropped row for this (student,
// section) pair when one exists, otherwise creates a fresh one. The
// reuse keeps the uniqueness invariant: one enrollment per pair
// regardless of status history.
func (s *RegistrationService) writeEnrollment(ctx context.Context, studentID, sectionID string, existing *models.Enrollment) (*models.Enrollment, error) {
	if existing != nil {
		if err := s.enrollments.Reactivate(ctx, existing.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate enrollment")
		}
		reactivated := *existing
		reactivated.Status = models.EnrollmentStatusActive
		reactivated.EnrolledAt = s.now()
		reactivated.DroppedAt = nil
		reactivated.FinalGrade = nil
		return &reactivated, nil
	}

	enrollment := &models.Enrollment{
		StudentID:  studentID,
		SectionID:  sectionID,
		EnrolledAt: s.now(),
		Status:     models.EnrollmentStatusActive,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Drop cancels an active enrollment, subject to the maintenance gate and
// the section's drop deadline.
func (s *RegistrationService) Drop(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	enrollment, err := s.drop(ctx, studentID, sectionID)
	s.observeDrop(err)
	return enrollment, err
}

func (s *RegistrationService) drop(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	if err := s.gate.CheckWrite(ctx, models.RoleStudent); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByStudentAndSection(ctx, studentID, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this section")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	now := s.now()
	if section != nil && !section.DropAllowed(now) {
		return nil, appErrors.Clone(appErrors.ErrDeadlinePassed,
			fmt.Sprintf("cannot drop this section, drop deadline has passed (%s)", section.DropDeadline.Format(time.RFC3339)))
	}

	if err := s.enrollments.MarkDropped(ctx, enrollment.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if err := s.sections.DecrementEnrolled(ctx, sectionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
	}

	s.invalidateStats(ctx, sectionID)
	dropped := *enrollment
	dropped.Status = models.EnrollmentStatusDropped
	dropped.DroppedAt = &now

	s.logger.Info("student dropped section",
		zap.String("student_id", studentID),
		zap.String("section_id", sectionID),
	)
	return &dropped, nil
}

// Timetable returns the student's active enrollments with section info.
func (s *RegistrationService) Timetable(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return enrollments, nil
}

func (s *RegistrationService) invalidateStats(ctx context.Context, sectionID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, statsCacheKey(sectionID))
	}
}

func (s *RegistrationService) observeRegistration(err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.RecordRegistration(appErrors.FromError(err).Code)
		return
	}
	s.metrics.RecordRegistration("success")
}

func (s *RegistrationService) observeDrop(err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.RecordDrop(appErrors.FromError(err).Code)
		return
	}
	s.metrics.RecordDrop("success")
}
