package models

import "time"

// SettingKeyMaintenance toggles the system-wide write gate.
const SettingKeyMaintenance = "maintenance_mode"

// Setting is a single key/value row in the settings table.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
