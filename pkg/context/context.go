package ctxutil

import (
	"context"
	"time"

	"github.com/agrimart/storefront/internal/constants"
)

type ContextKey = constants.ContextKey

const (
	RequestIDKey = constants.CtxKeyRequestID
	ClientIPKey  = constants.CtxKeyClientIP
	UserAgentKey = constants.CtxKeyUserAgent
	StartTimeKey = constants.CtxKeyStartTime
	LanguageKey  = constants.CtxKeyLanguage
	ResourceKey  = constants.CtxKeyResource
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, UserAgentKey, ua)
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, t)
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LanguageKey, lang)
}

func WithResource(ctx context.Context, resource string) context.Context {
	return context.WithValue(ctx, ResourceKey, resource)
}

// Getter functions
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

func GetClientIP(ctx context.Context) string {
	return getString(ctx, ClientIPKey)
}

func GetUserAgent(ctx context.Context) string {
	return getString(ctx, UserAgentKey)
}

func GetLanguage(ctx context.Context) string {
	return getString(ctx, LanguageKey)
}

func GetResource(ctx context.Context) string {
	return getString(ctx, ResourceKey)
}

// GetElapsed returns the time since WithStartTime, or zero when unset.
func GetElapsed(ctx context.Context) time.Duration {
	if ctx == nil {
		return 0
	}
	if start, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}

func getString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(key).(string); ok {
		return val
	}
	return ""
}
