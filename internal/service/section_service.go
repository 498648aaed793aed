package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type sectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error
}

// CreateSectionRequest describes a new section.
type CreateSectionRequest struct {
	CourseCode   string     `json:"course_code" validate:"required"`
	CourseTitle  string     `json:"course_title" validate:"required"`
	Credits      int        `json:"credits" validate:"required,gte=1,lte=8"`
	InstructorID *string    `json:"instructor_id"`
	ScheduleText string     `json:"schedule_text"`
	Capacity     int        `json:"capacity" validate:"required,gte=1"`
	DropDeadline *time.Time `json:"drop_deadline"`
}

// UpdateSectionRequest rewrites a section's mutable attributes.
type UpdateSectionRequest struct {
	CourseTitle  string     `json:"course_title" validate:"required"`
	Credits      int        `json:"credits" validate:"required,gte=1,lte=8"`
	InstructorID *string    `json:"instructor_id"`
	ScheduleText string     `json:"schedule_text"`
	Capacity     int        `json:"capacity" validate:"required,gte=1"`
	DropDeadline *time.Time `json:"drop_deadline"`
}

// SectionService handles administrative section management.
type SectionService struct {
	repo      sectionRepository
	gate      writeGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, gate writeGate, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, gate: gate, validator: validate, logger: logger}
}

// List returns sections matching the filter.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	sections, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get returns a single section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create registers a new section, open by default.
func (s *SectionService) Create(ctx context.Context, role models.UserRole, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if err := s.gate.CheckWrite(ctx, role); err != nil {
		return nil, err
	}

	section := &models.Section{
		CourseCode:   req.CourseCode,
		CourseTitle:  req.CourseTitle,
		Credits:      req.Credits,
		InstructorID: req.InstructorID,
		ScheduleText: req.ScheduleText,
		Capacity:     req.Capacity,
		Status:       models.SectionStatusOpen,
		DropDeadline: req.DropDeadline,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("course_code", section.CourseCode))
	return section, nil
}

// Update rewrites a section's attributes. Capacity may not shrink below
// the current enrolled count.
func (s *SectionService) Update(ctx context.Context, role models.UserRole, id string, req UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if err := s.gate.CheckWrite(ctx, role); err != nil {
		return nil, err
	}

	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Capacity < section.EnrolledCount {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "capacity cannot be lower than current enrollment")
	}

	section.CourseTitle = req.CourseTitle
	section.Credits = req.Credits
	section.InstructorID = req.InstructorID
	section.ScheduleText = req.ScheduleText
	section.Capacity = req.Capacity
	section.DropDeadline = req.DropDeadline
	if err := s.repo.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return section, nil
}

// UpdateStatus toggles a section between OPEN and CLOSED.
func (s *SectionService) UpdateStatus(ctx context.Context, role models.UserRole, id string, status models.SectionStatus) (*models.Section, error) {
	if status != models.SectionStatusOpen && status != models.SectionStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be OPEN or CLOSED")
	}
	if err := s.gate.CheckWrite(ctx, role); err != nil {
		return nil, err
	}

	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section status")
	}
	section.Status = status
	s.logger.Info("section status updated", zap.String("section_id", id), zap.String("status", string(status)))
	return section, nil
}
