package models

import "time"

// APIAccessLog is an append-only record of one external API call, kept for
// usage observability.
type APIAccessLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	URL    string `gorm:"type:text;not null"` // Request URL path.
	Method string `gorm:"type:text;not null"` // HTTP method.

	UserID *uint64 `gorm:"index"`             // Authenticated user ID, nil for the shared token.
	User   *User   `gorm:"foreignKey:UserID"` // Authenticated user.

	Time time.Time `gorm:"not null;autoCreateTime"` // Call timestamp.
}
