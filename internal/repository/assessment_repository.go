package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuserp/registry-api/internal/models"
)

// AssessmentRepository handles persistence of assessment records.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByStudentAndSection returns the assessment record for one student
// in one section, or sql.ErrNoRows when nothing has been entered yet.
func (r *AssessmentRepository) FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.AssessmentRecord, error) {
	const query = `SELECT id, student_id, section_id, quiz, midterm, final, updated_at
        FROM assessments WHERE student_id = $1 AND section_id = $2`
	var record models.AssessmentRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, sectionID); err != nil {
		return nil, err
	}
	return &record, nil
}

// MapBySection returns all assessment records for a section keyed by
// student ID.
func (r *AssessmentRepository) MapBySection(ctx context.Context, sectionID string) (map[string]*models.AssessmentRecord, error) {
	const query = `SELECT id, student_id, section_id, quiz, midterm, final, updated_at
        FROM assessments WHERE section_id = $1`
	var records []models.AssessmentRecord
	if err := r.db.SelectContext(ctx, &records, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section assessments: %w", err)
	}
	byStudent := make(map[string]*models.AssessmentRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}
	return byStudent, nil
}

// Upsert inserts or updates the assessment record for a (student,
// section) pair. Nil components overwrite nothing server-side: the
// caller merges before writing, this persists the merged row.
func (r *AssessmentRepository) Upsert(ctx context.Context, record *models.AssessmentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO assessments (id, student_id, section_id, quiz, midterm, final, updated_at)
        VALUES (:id, :student_id, :section_id, :quiz, :midterm, :final, :updated_at)
        ON CONFLICT (student_id, section_id)
        DO UPDATE SET quiz = EXCLUDED.quiz, midterm = EXCLUDED.midterm, final = EXCLUDED.final,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}
