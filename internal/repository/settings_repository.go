package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// SettingsRepository stores system-wide flags such as maintenance mode.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetBool reads a boolean setting; a missing key reads as false.
func (r *SettingsRepository) GetBool(ctx context.Context, key string) (bool, error) {
	const query = `SELECT value FROM settings WHERE key = $1`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse setting %s: %w", key, err)
	}
	return parsed, nil
}

// SetBool upserts a boolean setting.
func (r *SettingsRepository) SetBool(ctx context.Context, key string, value bool) error {
	const query = `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, strconv.FormatBool(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
