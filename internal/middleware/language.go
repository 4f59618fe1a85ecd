package middleware

import (
	"github.com/agrimart/storefront/internal/constants"
	ctxutil "github.com/agrimart/storefront/pkg/context"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/gin-gonic/gin"
)

// LanguageMiddleware picks the response language from the lang query
// parameter, then Accept-Language, then def.
func LanguageMiddleware(def errmsg.Language) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := def
		if q := c.Query(constants.QueryParamLang); q != "" {
			lang = errmsg.ParseLanguage(q)
		} else if h := c.GetHeader(constants.HeaderAcceptLanguage); h != "" {
			lang = errmsg.ParseLanguage(h)
		}

		c.Set(constants.GinKeyLanguage, lang)
		c.Request = c.Request.WithContext(ctxutil.WithLanguage(c.Request.Context(), string(lang)))
		c.Header(constants.HeaderContentLang, string(lang))

		c.Next()
	}
}

// LanguageFrom returns the request language, English when unset.
func LanguageFrom(c *gin.Context) errmsg.Language {
	if v, ok := c.Get(constants.GinKeyLanguage); ok {
		if lang, ok := v.(errmsg.Language); ok {
			return lang
		}
	}
	return errmsg.English
}
