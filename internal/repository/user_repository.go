package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuserp/registry-api/internal/models"
)

// UserRepository handles persistence of user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, active, failed_attempts, locked_until,
        last_login, created_at, updated_at`

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps the last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword rotates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// RecordFailedAttempt bumps the failed-login counter and returns the new
// count.
func (r *UserRepository) RecordFailedAttempt(ctx context.Context, id string) (int, error) {
	const query = `UPDATE users SET failed_attempts = failed_attempts + 1, updated_at = $2
        WHERE id = $1 RETURNING failed_attempts`
	var attempts int
	if err := r.db.GetContext(ctx, &attempts, query, id, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}
	return attempts, nil
}

// ResetFailedAttempts clears the failed-login counter and any lock.
func (r *UserRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	const query = `UPDATE users SET failed_attempts = 0, locked_until = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

// LockUntil locks the account until the given instant.
func (r *UserRepository) LockUntil(ctx context.Context, id string, until time.Time) error {
	const query = `UPDATE users SET locked_until = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, until, time.Now().UTC()); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}
