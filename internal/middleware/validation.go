package middleware

import (
	"errors"
	"net/http"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// GinKeyQuery holds the validated query struct.
const GinKeyQuery = "validated_query"

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{validate: validator.New()}
}

// ValidateQuery binds the query string into factory() and validates it.
// The result is stored under GinKeyQuery.
func (m *ValidationMiddleware) ValidateQuery(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := LanguageFrom(c)
		request := factory()

		if err := c.ShouldBindQuery(request); err != nil {
			logger.FromContext(c.Request.Context()).Debug("Middleware: Query binding failed",
				zap.String("query", c.Request.URL.RawQuery),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(
				constants.CodeInvalidRequest,
				errmsg.Message(lang, errmsg.KeyBadRequest),
				nil,
			))
			return
		}

		if err := m.validate.Struct(request); err != nil {
			details := m.messages(lang, err)
			logger.FromContext(c.Request.Context()).Warn("Middleware: Request validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", details),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(
				constants.CodeInvalidRequest,
				errmsg.Message(lang, errmsg.KeyBadRequest),
				details,
			))
			return
		}

		c.Set(GinKeyQuery, request)
		c.Next()
	}
}

func (m *ValidationMiddleware) messages(lang errmsg.Language, err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, validation.Message(lang, e.Field(), e.Tag(), e.Param()))
	}
	return out
}
