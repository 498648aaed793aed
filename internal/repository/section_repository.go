package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuserp/registry-api/internal/models"
)

// SectionRepository handles persistence of course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, course_code, course_title, credits, instructor_id, schedule_text,
        capacity, enrolled_count, status, drop_deadline, created_at, updated_at`

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE id = $1`, sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// List returns sections filtered by the provided criteria.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM sections%s ORDER BY course_code, id`, sectionColumns, clause)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// Create persists a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	if section.Status == "" {
		section.Status = models.SectionStatusOpen
	}
	const query = `INSERT INTO sections (id, course_code, course_title, credits, instructor_id, schedule_text,
        capacity, enrolled_count, status, drop_deadline, created_at, updated_at)
        VALUES (:id, :course_code, :course_title, :credits, :instructor_id, :schedule_text,
        :capacity, :enrolled_count, :status, :drop_deadline, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update rewrites the mutable attributes of a section. The enrolled
// counter is only ever touched through the conditional increment and
// decrement below.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET course_code = :course_code, course_title = :course_title,
        credits = :credits, instructor_id = :instructor_id, schedule_text = :schedule_text,
        capacity = :capacity, drop_deadline = :drop_deadline, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// UpdateStatus toggles a section between OPEN and CLOSED.
func (r *SectionRepository) UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error {
	const query = `UPDATE sections SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section status: %w", err)
	}
	return nil
}

// TryIncrementEnrolled reserves one seat with a conditional atomic
// update, returning false when the section is already full. Concurrent
// registrations against the same section serialize on this row update,
// so the capacity check and the increment cannot interleave.
func (r *SectionRepository) TryIncrementEnrolled(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE sections SET enrolled_count = enrolled_count + 1, updated_at = $2
        WHERE id = $1 AND enrolled_count < capacity`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("increment enrolled count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment enrolled count: %w", err)
	}
	return affected == 1, nil
}

// DecrementEnrolled releases one seat, never going below zero.
func (r *SectionRepository) DecrementEnrolled(ctx context.Context, id string) error {
	const query = `UPDATE sections SET enrolled_count = enrolled_count - 1, updated_at = $2
        WHERE id = $1 AND enrolled_count > 0`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement enrolled count: %w", err)
	}
	return nil
}
