package models

import "time"

// User represents a platform account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Role string `gorm:"type:text;not null;default:'USER'"` // Privilege role (USER/ADMIN/DEVELOPER/OWNER).

	Token          string `gorm:"type:text;not null;uniqueIndex"` // Remember-me and API token.
	AllowAPIAccess bool   `gorm:"not null;default:false"`         // Whether the token may call the external API.

	IPAddress string `gorm:"type:text"` // Client IP captured at registration.
	UserAgent string `gorm:"type:text"` // Client user agent captured at registration.

	ProfilePic string `gorm:"type:text"` // Profile picture path or URL.

	RegisterTime  time.Time  `gorm:"not null;autoCreateTime"` // Registration timestamp.
	LastLoginTime *time.Time // Last successful login, nil before first login.
}
