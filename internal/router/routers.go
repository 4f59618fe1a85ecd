package router

import (
	"time"

	"github.com/agrimart/storefront/config"
	"github.com/agrimart/storefront/internal/dto"
	"github.com/agrimart/storefront/internal/handler"
	"github.com/agrimart/storefront/internal/middleware"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/gin-gonic/gin"
)

type Router struct {
	catalogHandler *handler.CatalogHandler
	healthHandler  *handler.HealthHandler

	validMw *middleware.ValidationMiddleware
	adminMw *middleware.AdminMiddleware
	Config  *config.Config
}

func NewRouter(
	catalog *handler.CatalogHandler,
	health *handler.HealthHandler,

	validMw *middleware.ValidationMiddleware,
	config *config.Config,
) *Router {
	r := &Router{
		catalogHandler: catalog,
		healthHandler:  health,

		validMw: validMw,
		Config:  config,
	}
	if config.Admin.JWTSecret != "" {
		r.adminMw = middleware.NewAdminMiddleware(config.Admin.JWTSecret)
	}
	return r
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.ContextMiddleware())
	router.Use(middleware.LanguageMiddleware(errmsg.ParseLanguage(r.Config.App.DefaultLanguage)))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)
		api.GET("/health/live", r.healthHandler.BasicHealth)

		v1 := api.Group("/v1")
		{
			v1.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))
			v1.Use(middleware.RequestTimeoutMiddleware(r.Config.App.Timeout))

			r.catalogRoutes(v1)
			r.cacheRoutes(v1)
		}
	}

	return router
}

func (r *Router) catalogRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/catalog")
	{
		catalog.GET("", r.catalogHandler.ListResources)
		catalog.GET("/:resource",
			r.validMw.ValidateQuery(func() interface{} { return &dto.ListQuery{} }),
			r.catalogHandler.ListPage,
		)
	}
}

// cacheRoutes are only registered when an admin secret is configured.
func (r *Router) cacheRoutes(rg *gin.RouterGroup) {
	if r.adminMw == nil {
		return
	}
	cache := rg.Group("/cache")
	cache.Use(r.adminMw.RequireAdmin())
	{
		cache.DELETE("/:resource", r.catalogHandler.InvalidateCache)
	}
}
