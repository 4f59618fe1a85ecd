package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/agrimart/storefront/config"
	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/handler"
	"github.com/agrimart/storefront/internal/middleware"
	"github.com/agrimart/storefront/internal/repository"
	"github.com/agrimart/storefront/internal/router"
	"github.com/agrimart/storefront/internal/service"
	"github.com/agrimart/storefront/pkg/cache"
	"github.com/agrimart/storefront/pkg/circuit"
	"github.com/agrimart/storefront/pkg/database"
	"github.com/agrimart/storefront/pkg/health"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/pool"
	"github.com/agrimart/storefront/pkg/redis"
	"github.com/agrimart/storefront/pkg/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if !config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	monitor := health.NewMonitor(30*time.Second, log)

	// Endpoint registry: postgres when enabled, the built-in list otherwise.
	var (
		endpoints repository.EndpointStore
		db        *gorm.DB
	)
	if config.Database.Enabled {
		db, err = database.NewPostgresDB(config)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.CloseDB(db)

		if err := database.AutoMigrate(db); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}
		if err := database.Seed(db); err != nil {
			log.Error("Failed to seed database", zap.Error(err))
		}
		endpoints = repository.NewEndpointRepository(db)
		monitor.Register("database", &health.FuncChecker{Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}}, true)
	} else {
		log.Info("Database disabled, using built-in resource endpoints")
		endpoints = repository.NewStaticEndpoints(database.DefaultEndpoints())
		monitor.Register("database", &health.FuncChecker{}, false)
	}

	// Page cache: redis when enabled, in-process otherwise.
	var pageCache cache.PageCache
	redisClient, err := redis.NewClient(config)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		redisClient = redis.Disabled()
	}
	defer redisClient.Close()
	if redisClient.Enabled() {
		pageCache = redisClient
		monitor.Register("redis", &health.FuncChecker{Ping: redisClient.Ping}, false)
	} else {
		mem := cache.NewMemory(time.Minute)
		defer mem.Close()
		pageCache = mem
		monitor.Register("redis", &health.FuncChecker{}, false)
	}

	poolCfg := pool.DefaultConfig()
	poolCfg.RequestTimeout = config.Upstream.Timeout
	transport := pool.New(poolCfg, log)
	defer transport.Close()

	breakerCfg := circuit.DefaultConfig()
	breakerCfg.Threshold = config.Upstream.BreakerThreshold
	breakerCfg.Cooldown = config.Upstream.BreakerCooldown

	client, err := upstream.New(upstream.Options{
		BaseURL: config.Upstream.BaseURL,
		Token:   upstream.StaticToken(config.Upstream.Token),
		Pool:    transport,
		Breaker: breakerCfg,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("Failed to create upstream client", zap.Error(err))
	}
	monitor.Register("upstream", &health.FuncChecker{Ping: client.Health}, true)

	catalogService := service.NewCatalogService(endpoints, client, service.NewCacheService(pageCache), service.CatalogConfig{
		DefaultTTL:      config.Cache.DefaultTTL,
		UpstreamTimeout: config.Upstream.Timeout,
	})

	r := router.NewRouter(
		handler.NewCatalogHandler(catalogService),
		handler.NewHealthHandler(monitor, constants.AppVersion),

		middleware.NewValidationMiddleware(),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor.Start()
	defer monitor.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("port", config.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server stopped")
}
