package database

import (
	"github.com/agrimart/storefront/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ResourceEndpoint{}); err != nil {
		return err
	}
	return EnsureIndexes(db)
}
