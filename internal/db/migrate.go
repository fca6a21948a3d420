package db

import (
	"fmt"

	"github.com/jzelenk/adminboard/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all platform entities.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Ban{},
		&models.LogEntry{},
		&models.Subscriber{},
		&models.SentNotification{},
		&models.APIAccessLog{},
		&models.Setting{},
	)
}
