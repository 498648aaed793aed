package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuserp/registry-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentAndSection returns the single enrollment row for a
// (student, section) pair regardless of status, or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, enrolled_at, dropped_at, final_grade, status
        FROM enrollments WHERE student_id = $1 AND section_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, sectionID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByStudent returns the student's active enrollments enriched
// with section info, in enrollment order. The registration engine walks
// this list for clash detection, so ordering is part of the contract.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.dropped_at, e.final_grade, e.status,
        s.course_code, s.course_title, s.credits, s.schedule_text
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY e.enrolled_at, e.id`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudentAndStatus returns a student's enrollments with section
// info, optionally filtered by status.
func (r *EnrollmentRepository) ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := `SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.dropped_at, e.final_grade, e.status,
        s.course_code, s.course_title, s.credits, s.schedule_text
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if status != "" {
		query += " AND e.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY e.enrolled_at, e.id"
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListBySection returns a section's enrollments (the roster) excluding
// dropped rows.
func (r *EnrollmentRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, enrolled_at, dropped_at, final_grade, status
        FROM enrollments WHERE section_id = $1 AND status <> $2 ORDER BY enrolled_at, id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, sectionID, models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("list section enrollments: %w", err)
	}
	return enrollments, nil
}

// Create persists a new active enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, student_id, section_id, enrolled_at, dropped_at, final_grade, status)
        VALUES (:id, :student_id, :section_id, :enrolled_at, :dropped_at, :final_grade, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Reactivate flips a previously dropped enrollment back to ACTIVE,
// clearing the drop timestamp and any stale final grade, so the original
// identifier survives a drop/re-register cycle.
func (r *EnrollmentRepository) Reactivate(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET status = $2, enrolled_at = $3, dropped_at = NULL, final_grade = NULL
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusActive, time.Now().UTC()); err != nil {
		return fmt.Errorf("reactivate enrollment: %w", err)
	}
	return nil
}

// MarkDropped transitions an enrollment to DROPPED with a drop timestamp.
func (r *EnrollmentRepository) MarkDropped(ctx context.Context, id string, droppedAt time.Time) error {
	const query = `UPDATE enrollments SET status = $2, dropped_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusDropped, droppedAt); err != nil {
		return fmt.Errorf("mark enrollment dropped: %w", err)
	}
	return nil
}

// SetFinalGrade records the final letter and completes the enrollment.
func (r *EnrollmentRepository) SetFinalGrade(ctx context.Context, id, letter string) error {
	const query = `UPDATE enrollments SET final_grade = $2, status = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, letter, models.EnrollmentStatusCompleted); err != nil {
		return fmt.Errorf("set final grade: %w", err)
	}
	return nil
}
