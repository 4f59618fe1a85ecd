package constants

const AppVersion = "1.0.0"

// Environment Types
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "agrimart:"
	CacheKeyPage   = CacheKeyPrefix + "page:"
)

// Resource slugs seeded by default.
const (
	ResourceProducts     = "products"
	ResourceMarketPrices = "market-prices"
	ResourceArticles     = "articles"
)
