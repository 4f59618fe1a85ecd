package constants

// Query parameters understood by the catalog endpoint.
const (
	QueryParamPage = "page"
	QueryParamSize = "size"
	QueryParamLang = "lang"
)

// Pagination Limits
const (
	MaxSize         = 100
	DefaultPageSize = 12
)
