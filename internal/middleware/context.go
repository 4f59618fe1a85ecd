package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	ctxutil "github.com/agrimart/storefront/pkg/context"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRequestIDLength = 128

// ContextMiddleware assigns a request id and stores request metadata in the
// request context. An incoming X-Request-ID is kept when it looks sane.
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		ctx = ctxutil.WithUserAgent(ctx, c.Request.UserAgent())
		ctx = ctxutil.WithStartTime(ctx, time.Now())
		c.Request = c.Request.WithContext(ctx)

		c.Set(constants.GinKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)

		c.Next()
	}
}

// RequestTimeoutMiddleware bounds the request context.
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			logger.FromContext(ctx).Warn("Middleware: Request timed out",
				zap.Duration("timeout", timeout),
			)
			lang := LanguageFrom(c)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, constants.BuildErrorResponse(
				constants.CodeUpstreamUnavailable,
				errmsg.Message(lang, errmsg.KeyNetwork),
				nil,
			))
		}
	}
}

// RequestID returns the id set by ContextMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(constants.GinKeyRequestID)
}
