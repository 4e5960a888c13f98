package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return ErrNilDatabase
	}
	return db.AutoMigrate(
		&models.Organization{},
		&models.Account{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
