package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuserp/registry-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_code", "course_title", "credits", "instructor_id", "schedule_text",
		"capacity", "enrolled_count", "status", "drop_deadline", "created_at", "updated_at"}).
		AddRow("sec-1", "CS101", "Intro to Computing", 4, nil, "Mon/Wed 10:00-11:00", 30, 12, models.SectionStatusOpen, nil, now, now)
	mock.ExpectQuery(`(?s)SELECT .+ FROM sections WHERE id = \$1`).
		WithArgs("sec-1").
		WillReturnRows(rows)

	section, err := repo.FindByID(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Equal(t, "CS101", section.CourseCode)
	require.Equal(t, 30, section.Capacity)
	require.True(t, section.HasSeats())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryTryIncrementEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	query := regexp.QuoteMeta(`UPDATE sections SET enrolled_count = enrolled_count + 1, updated_at = $2
        WHERE id = $1 AND enrolled_count < capacity`)

	mock.ExpectExec(query).
		WithArgs("sec-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.TryIncrementEnrolled(context.Background(), "sec-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Full section: the conditional update matches no rows.
	mock.ExpectExec(query).
		WithArgs("sec-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.TryIncrementEnrolled(context.Background(), "sec-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDecrementEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sections SET enrolled_count = enrolled_count - 1, updated_at = $2
        WHERE id = $1 AND enrolled_count > 0`)).
		WithArgs("sec-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementEnrolled(context.Background(), "sec-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
