package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware logs HTTP requests through zap.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			requestID, _ := param.Keys[constants.GinKeyRequestID].(string)

			logger.LogRequest(
				requestID,
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency.Milliseconds(),
				param.ClientIP,
			)

			if param.ErrorMessage != "" {
				logger.GetLogger().Error("Request error",
					zap.String("request_id", requestID),
					zap.String("error", param.ErrorMessage),
					zap.String("path", param.Path),
					zap.Int("status_code", param.StatusCode),
				)
			}

			if param.Latency > slowRequestThreshold {
				logger.GetLogger().Warn("Slow request detected",
					zap.String("request_id", requestID),
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.Duration("latency", param.Latency),
				)
			}

			return ""
		},
		Output:    io.Discard,
		SkipPaths: []string{"/api/health/live"},
	})
}

// RecoveryMiddleware recovers from panics and answers with a localized
// internal error.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)

		c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildErrorResponse(
			constants.CodeInternalError,
			errmsg.Message(LanguageFrom(c), errmsg.KeyGeneric),
			nil,
		))
	})
}
