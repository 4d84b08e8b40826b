package database

import (
	"fmt"

	"gorm.io/gorm"

	"insight-flow/backend/internal/models"
)

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
