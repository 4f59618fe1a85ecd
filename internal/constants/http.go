package constants

// HTTP Header Names
const (
	HeaderAuthorization  = "Authorization"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderContentLang    = "Content-Language"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCache         = "X-Cache"
)

// Values of the X-Cache header.
const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// Error codes returned in the {code, message} error body.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidFilter       = "INVALID_FILTER"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
)

const MsgCacheInvalidated = "Cache invalidated successfully"
