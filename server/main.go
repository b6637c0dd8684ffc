package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showtime/api/routes"
	"showtime/internal/notifications"
	"showtime/internal/seats"
	"showtime/internal/shared/config"
	"showtime/internal/shared/database"
	"showtime/internal/shared/middleware"
	"showtime/pkg/logger"
	"showtime/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title                      Showtime API
// @version                    1.0
// @description                Seat selection, checkout and ticketing for the event catalog.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// The logger reads GIN_MODE and LOG_LEVEL, so rebuild it once config is loaded
	appLogger = logger.New()
	logger.SetDefault(appLogger)
	appLogger.Info("Starting showtime backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit),
	)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.WithError(err).Error("Failed to initialize storage")
		os.Exit(1)
	}
	defer db.Close()

	// Lua scripts back the atomic availability commit
	if db.Redis != nil && cfg.Storage.Availability == config.BackendRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := seats.PreloadScripts(ctx, db.Redis); err != nil {
			// Scripts are loaded on first use anyway
			appLogger.WithError(err).Error("Failed to preload Redis Lua scripts")
		} else {
			appLogger.Info("Redis Lua scripts preloaded for atomic seat commits")
		}
		cancel()
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedis(), cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	publisher := newPublisher(cfg, appLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.WithError(err).Error("Error closing booking publisher")
		}
	}()

	appRouter, err := routes.NewRouter(cfg, db, publisher)
	if err != nil {
		appLogger.WithError(err).Error("Failed to build services")
		os.Exit(1)
	}

	if cfg.Storage.SeedCatalog || db.PostgreSQL == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		seeded, err := appRouter.Events().SeedCatalog(ctx)
		cancel()
		if err != nil {
			appLogger.WithError(err).Error("Failed to seed event catalog")
		} else {
			appLogger.Info("Event catalog seeded", slog.Int("events", seeded))
		}
	}

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if consumer := newCacheSyncConsumer(cfg, appRouter.Availability(), appLogger); consumer != nil {
		consumer.Start(consumerCtx)
		appLogger.Info("Availability cache sync consumer started")
		defer func() {
			if err := consumer.Stop(); err != nil {
				appLogger.WithError(err).Error("Error stopping cache sync consumer")
			}
		}()
	}

	router := setupRouter(appRouter, rateLimiter)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_base", cfg.GetAPIBasePath()),
			slog.String("availability_backend", cfg.Storage.Availability),
			slog.String("ticket_backend", cfg.Storage.Tickets),
			slog.String("session_backend", cfg.Storage.Sessions),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", rateLimiter != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Error("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}

	appLogger.Info("Server exited gracefully")
}

func newPublisher(cfg *config.Config, appLogger *logger.Logger) notifications.Publisher {
	if !cfg.Kafka.Enabled {
		appLogger.Info("Kafka disabled, booking events will not be published")
		return notifications.NoopPublisher{}
	}

	publisher, err := notifications.NewKafkaPublisher(cfg.Kafka)
	if err != nil {
		appLogger.WithError(err).Error("Failed to create Kafka publisher, continuing without booking events")
		return notifications.NoopPublisher{}
	}
	appLogger.Info("Kafka publisher initialized",
		slog.String("topic", cfg.Kafka.Topic),
		slog.Any("brokers", cfg.Kafka.Brokers),
	)
	return publisher
}

// newCacheSyncConsumer drops cached availability when any instance commits or
// releases seats. Each instance joins its own group so it sees every event.
func newCacheSyncConsumer(cfg *config.Config, availability seats.Service, appLogger *logger.Logger) *notifications.Consumer {
	if !cfg.Kafka.Enabled || !cfg.Kafka.CacheSync {
		return nil
	}

	consumer, err := notifications.NewConsumer(notifications.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.CacheSyncGroup + "-" + uuid.New().String(),
		Topics:   []string{cfg.Kafka.Topic},
		ClientID: cfg.Kafka.ClientID,
	}, notifications.AvailabilityCacheSync(availability.InvalidateCache))
	if err != nil {
		appLogger.WithError(err).Error("Failed to create cache sync consumer")
		return nil
	}
	return consumer
}

func setupRouter(appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Request ids first so the access log and handlers share one logger
	engine.Use(middleware.RequestID(appLogger), RequestLoggerMiddleware(), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.FromGin(c).LogHTTPRequest(c, time.Since(start))
	}
}
