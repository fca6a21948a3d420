package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores one DB-backed configuration value as JSON.
type Setting struct {
	Key       string         `gorm:"primaryKey;type:text"`    // Setting key.
	Value     datatypes.JSON `gorm:"not null"`                // JSON-encoded value.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
