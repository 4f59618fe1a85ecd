package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/dto"
	apperrors "github.com/agrimart/storefront/internal/errors"
	"github.com/agrimart/storefront/internal/middleware"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the {code, message} body for err. Upstream failures
// carry the marketplace message; local failures get a fixed one.
func respondError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	code := apperrors.ToCode(err)
	lang := middleware.LanguageFrom(c)

	if errors.Is(err, context.Canceled) {
		logger.FromContext(c.Request.Context()).Debug("Handler: Client went away", zap.Error(err))
		c.Abort()
		return
	}

	message := errorMessage(lang, code, status, err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Handler: Request failed",
			zap.String("code", code),
			zap.Int("status_code", status),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{Code: code, Message: message})
}

func errorMessage(lang errmsg.Language, code string, status int, err error) string {
	switch code {
	case constants.CodeUpstreamError, constants.CodeUpstreamUnavailable:
		return errmsg.Resolve(err, lang, "")
	case constants.CodeRateLimited:
		return errmsg.Message(lang, errmsg.KeyTooManyRequests)
	}
	if msg, ok := errmsg.StatusMessage(lang, status); ok {
		return msg
	}
	return errmsg.Message(lang, errmsg.KeyGeneric)
}
