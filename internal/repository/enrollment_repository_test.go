package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campuserp/registry-api/internal/models"
)

func TestEnrollmentRepositoryListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "enrolled_at", "dropped_at", "final_grade", "status",
		"course_code", "course_title", "credits", "schedule_text"}).
		AddRow("enr-1", "stu-1", "sec-1", time.Now(), nil, nil, models.EnrollmentStatusActive,
			"CS101", "Intro to Computing", 4, "Mon/Wed 10:00-11:00")
	mock.ExpectQuery(`(?s)SELECT e\.id, .+ FROM enrollments e\s+JOIN sections s ON s\.id = e\.section_id\s+WHERE e\.student_id = \$1 AND e\.status = \$2`).
		WithArgs("stu-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollments, err := repo.ListActiveByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, "CS101", enrollments[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET status = $2, enrolled_at = $3, dropped_at = NULL, final_grade = NULL
        WHERE id = $1`)).
		WithArgs("enr-1", models.EnrollmentStatusActive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reactivate(context.Background(), "enr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryMarkDropped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	droppedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET status = $2, dropped_at = $3 WHERE id = $1`)).
		WithArgs("enr-1", models.EnrollmentStatusDropped, droppedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDropped(context.Background(), "enr-1", droppedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetFinalGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET final_grade = $2, status = $3 WHERE id = $1`)).
		WithArgs("enr-1", "A", models.EnrollmentStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetFinalGrade(context.Background(), "enr-1", "A"))
	require.NoError(t, mock.ExpectationsWereMet())
}
