package db

import (
	"fmt"

	"github.com/chatport/wagateway-extras/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the schema for the tables this layer owns.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Instance{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}
