package database

import (
	"fmt"

	"github.com/agrimart/storefront/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var endpointIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_resource_endpoints_active_slug ON resource_endpoints(slug) WHERE is_active = true AND deleted_at IS NULL;",
	"CREATE INDEX IF NOT EXISTS idx_resource_endpoints_allowed_filters_gin ON resource_endpoints USING GIN (allowed_filters);",
}

// EnsureIndexes creates the indexes AutoMigrate cannot express.
func EnsureIndexes(db *gorm.DB) error {
	for _, stmt := range endpointIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.GetLogger().Error("Failed to create index",
				zap.String("statement", stmt),
				zap.Error(err),
			)
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
