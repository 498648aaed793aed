package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campuserp/registry-api/internal/models"
)

func TestAssessmentRepositoryMapBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	now := time.Now()
	quiz := 18.0
	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "quiz", "midterm", "final", "updated_at"}).
		AddRow("as-1", "stu-1", "sec-1", quiz, nil, nil, now).
		AddRow("as-2", "stu-2", "sec-1", 15.0, 22.0, 40.0, now)
	mock.ExpectQuery(`SELECT .+ FROM assessments WHERE section_id = \$1`).
		WithArgs("sec-1").
		WillReturnRows(rows)

	records, err := repo.MapBySection(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records["stu-1"].Quiz)
	require.Equal(t, quiz, *records["stu-1"].Quiz)
	require.Nil(t, records["stu-1"].Final)
	require.NotNil(t, records["stu-2"].Final)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryUpsertAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO assessments.+ON CONFLICT \(student_id, section_id\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	quiz := 12.5
	record := &models.AssessmentRecord{StudentID: "stu-1", SectionID: "sec-1", Quiz: &quiz}
	require.NoError(t, repo.Upsert(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
