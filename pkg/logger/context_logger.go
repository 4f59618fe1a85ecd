package logger

import (
	"context"

	ctxutil "github.com/agrimart/storefront/pkg/context"
	"go.uber.org/zap"
)

// FromContext returns the global logger annotated with the request-scoped
// fields found in ctx.
func FromContext(ctx context.Context) *zap.Logger {
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ContextFields extracts the request-scoped fields set by the HTTP middleware.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 5)
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if clientIP := ctxutil.GetClientIP(ctx); clientIP != "" {
		fields = append(fields, zap.String("client_ip", clientIP))
	}
	if ua := ctxutil.GetUserAgent(ctx); ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if lang := ctxutil.GetLanguage(ctx); lang != "" {
		fields = append(fields, zap.String("lang", lang))
	}
	if resource := ctxutil.GetResource(ctx); resource != "" {
		fields = append(fields, zap.String("resource", resource))
	}
	return fields
}
