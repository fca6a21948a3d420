package models

import "time"

// Log entry status values. Entries are append-only except for the
// unread-to-read transition.
const (
	// LogStatusUnread marks an entry not yet reviewed by an admin.
	LogStatusUnread = "UNREADED"
	// LogStatusRead marks an entry already reviewed.
	LogStatusRead = "READED"
)

// LogEntry represents a structured audit event.
type LogEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name    string `gorm:"type:text;not null"` // Event category.
	Message string `gorm:"type:text;not null"` // Free-text message, may be long.

	Level int `gorm:"not null"` // Numeric severity, positive.

	UserID *uint64 `gorm:"index"`             // Acting user ID, nil for anonymous or external events.
	User   *User   `gorm:"foreignKey:UserID"` // Acting user.

	IPAddress string `gorm:"type:text"` // Requester IP.
	UserAgent string `gorm:"type:text"` // Requester user agent.

	Status string `gorm:"type:text;not null;default:'UNREADED';index"` // UNREADED or READED.

	Time time.Time `gorm:"not null;autoCreateTime;index"` // Event timestamp.
}
