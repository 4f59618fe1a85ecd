package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const adminRole = "admin"

var errNotAdmin = errors.New("token does not carry the admin role")

type AdminMiddleware struct {
	secret []byte
}

func NewAdminMiddleware(secret string) *AdminMiddleware {
	return &AdminMiddleware{secret: []byte(secret)}
}

// ValidateToken checks an HS256 token and its role claim.
func (m *AdminMiddleware) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return nil, errNotAdmin
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin bearer token.
func (m *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := LanguageFrom(c)
		log := logger.FromContext(c.Request.Context())

		authHeader := c.GetHeader(constants.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			log.Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			m.reject(c, http.StatusUnauthorized, lang)
			return
		}

		claims, err := m.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid admin token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			status := http.StatusUnauthorized
			if errors.Is(err, errNotAdmin) {
				status = http.StatusForbidden
			}
			m.reject(c, status, lang)
			return
		}

		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set("admin_subject", sub)
		}
		c.Next()
	}
}

func (m *AdminMiddleware) reject(c *gin.Context, status int, lang errmsg.Language) {
	code := constants.CodeUnauthorized
	if status == http.StatusForbidden {
		code = constants.CodeForbidden
	}
	msg, _ := errmsg.StatusMessage(lang, status)
	c.AbortWithStatusJSON(status, constants.BuildErrorResponse(
		code,
		msg,
		nil,
	))
}
