package constants

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	CtxKeyRequestID ContextKey = "request_id"
	CtxKeyClientIP  ContextKey = "client_ip"
	CtxKeyUserAgent ContextKey = "user_agent"
	CtxKeyStartTime ContextKey = "start_time"
	CtxKeyLanguage  ContextKey = "language"
	CtxKeyResource  ContextKey = "resource"
)

// Gin context keys, set by middleware and read by handlers.
const (
	GinKeyRequestID = "request_id"
	GinKeyLanguage  = "language"
)
