package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountapp "github.com/minimart/storefront/internal/application/account"
	adminapp "github.com/minimart/storefront/internal/application/admin"
	cartapp "github.com/minimart/storefront/internal/application/cart"
	catalogapp "github.com/minimart/storefront/internal/application/catalog"
	orderapp "github.com/minimart/storefront/internal/application/order"
	"github.com/minimart/storefront/internal/application/session"
	"github.com/minimart/storefront/internal/application/visitor"
	"github.com/minimart/storefront/internal/infrastructure/auth"
	"github.com/minimart/storefront/internal/infrastructure/backend"
	"github.com/minimart/storefront/internal/infrastructure/config"
	"github.com/minimart/storefront/internal/infrastructure/logger"
	"github.com/minimart/storefront/internal/infrastructure/metrics"
	"github.com/minimart/storefront/internal/infrastructure/sessionrepo"
	"github.com/minimart/storefront/internal/infrastructure/storage"
	"github.com/minimart/storefront/internal/infrastructure/telemetry"
	"github.com/minimart/storefront/internal/interfaces/http/handler"
	"github.com/minimart/storefront/internal/interfaces/http/middleware"
	"github.com/minimart/storefront/internal/interfaces/http/router"
)

// tokenLeeway ends a session this long before its token's exp claim, so a
// token about to expire is not sent to the backend.
const tokenLeeway = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting MiniMart storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	promRegistry := metrics.NewRegistry()

	// Session persistence
	health := map[string]handler.Pinger{}
	var sessions session.Repository
	switch cfg.Session.Store {
	case "redis":
		repo, err := sessionrepo.NewRedisRepository(ctx, sessionrepo.RedisConfig{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			log.Fatal("Failed to connect session store", zap.Error(err))
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Error("Error closing session store", zap.Error(err))
			}
		}()
		sessions = repo
		health["sessions"] = repo
		log.Info("Session store connected", zap.String("addr", cfg.Redis.Addr()))
	default:
		sessions = sessionrepo.NewInMemoryRepository()
		log.Warn("Using in-memory session store; sessions are lost on restart")
	}

	// Store backend
	client, err := backend.NewClient(&cfg.Backend,
		backend.WithObserver(promRegistry),
		backend.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to create backend client", zap.Error(err))
	}

	// Product image storage
	var images adminapp.ImageStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize image storage", zap.Error(err))
		}
		images = s3
	} else {
		images = storage.NewStubImageStorage()
		log.Info("Image storage disabled, using stub uploads")
	}

	// Application services
	inspector := auth.NewInspector(tokenLeeway)
	catalogService := catalogapp.NewService(backend.NewCatalogAPI(client), cfg.Catalog.FeaturedCount, log)
	orderService := orderapp.NewService(backend.NewOrderAPI(client), log)
	accountService := accountapp.NewService(backend.NewAccountAPI(client), inspector, log)
	adminService := adminapp.NewService(backend.NewAdminAPI(client),
		adminapp.WithImageStorage(images, cfg.Storage.PresignExpiration),
		adminapp.WithLogger(log),
	)

	visitors := visitor.NewRegistry(backend.NewCartAPI(client),
		visitor.WithRepository(sessions, cfg.Session.TTL),
		visitor.WithInspector(inspector),
		visitor.WithIdleTimeout(cfg.Session.IdleTimeout),
		visitor.WithGauge(promRegistry),
		visitor.WithCartOptions(cartapp.WithRecorder(promRegistry)),
		visitor.WithLogger(log),
	)
	go visitors.Run(ctx, cfg.Session.SweepInterval)

	// Initialize Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Count requests by route
	// 6. Security, CORS
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(promRegistry.GinMiddleware())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))

	engine.GET("/health", handler.NewSystemHandler(health).Health)
	engine.GET("/metrics", gin.WrapH(promRegistry.Handler()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.Storefront(r, router.Handlers{
		Catalog:  handler.NewCatalogHandler(catalogService),
		Cart:     handler.NewCartHandler(),
		Orders:   handler.NewOrderHandler(orderService),
		Account:  handler.NewAccountHandler(accountService),
		Admin:    handler.NewAdminHandler(adminService),
		Visitors: middleware.Visitors(visitors, cfg.Session),
	}).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}
