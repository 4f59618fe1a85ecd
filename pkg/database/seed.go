package database

import (
	"errors"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/model"
	"gorm.io/gorm"
)

// DefaultEndpoints are the marketplace collections exposed out of the box.
func DefaultEndpoints() []model.ResourceEndpoint {
	return []model.ResourceEndpoint{
		{
			Slug:           constants.ResourceProducts,
			Name:           "Products",
			UpstreamPath:   "/api/products",
			DefaultSize:    constants.DefaultPageSize,
			AllowedFilters: model.FilterList("search", "category", "district", "sort"),
			CacheEnabled:   true,
			CacheTTL:       60,
			IsActive:       true,
			Description:    "Marketplace product catalog",
		},
		{
			Slug:           constants.ResourceMarketPrices,
			Name:           "Market prices",
			UpstreamPath:   "/api/market-prices",
			DefaultSize:    constants.DefaultPageSize,
			AllowedFilters: model.FilterList("search", "category", "district", "date"),
			CacheEnabled:   true,
			CacheTTL:       300,
			IsActive:       true,
			Description:    "Daily wholesale market prices",
		},
		{
			Slug:           constants.ResourceArticles,
			Name:           "Knowledge hub",
			UpstreamPath:   "/api/articles",
			DefaultSize:    constants.DefaultPageSize,
			AllowedFilters: model.FilterList("search", "category"),
			CacheEnabled:   true,
			CacheTTL:       600,
			IsActive:       true,
			Description:    "Knowledge hub articles",
		},
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedEndpoints(db)
}

// SeedEndpoints inserts each default endpoint that does not exist yet.
func SeedEndpoints(db *gorm.DB) error {
	for _, endpoint := range DefaultEndpoints() {
		var existing model.ResourceEndpoint
		result := db.Where("slug = ?", endpoint.Slug).First(&existing)

		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		if err := db.Create(&endpoint).Error; err != nil {
			return err
		}
	}
	return nil
}
