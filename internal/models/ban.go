package models

import "time"

// Ban status values. A user has at most one active ban; lifted rows are
// retained as an audit trail.
const (
	// BanStatusActive marks a ban that is currently enforced.
	BanStatusActive = "active"
	// BanStatusLifted marks a ban that has been revoked.
	BanStatusLifted = "lifted"
)

// Ban represents a ban issued against a user account.
type Ban struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	BannedUserID uint64 `gorm:"not null;index"`          // Target user ID.
	BannedUser   *User  `gorm:"foreignKey:BannedUserID"` // Target user.

	BannedByID *uint64 `gorm:"index"`                 // Issuer user ID, nil when the issuer was deleted.
	BannedBy   *User   `gorm:"foreignKey:BannedByID"` // Issuer user.

	Reason string `gorm:"type:text;not null"` // Free-text ban reason.

	Status string `gorm:"type:text;not null;default:'active';index"` // active or lifted.

	Time time.Time `gorm:"not null;autoCreateTime"` // Issue timestamp.
}
