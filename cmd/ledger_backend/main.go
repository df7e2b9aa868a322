package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3"

	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/core/services"
	"github.com/SscSPs/ledger_integrity_core/internal/handlers"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/config"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/database/pgsql"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/memory"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/redis"
	"github.com/SscSPs/ledger_integrity_core/pkg/database"
)

// @title Ledger Integrity Core API
// @version 1.0
// @description Multi-tenant double-entry ledger: accounts, journals, FX rates and the audit trail.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	repos, cleanup, err := setupRepositories(sigCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	serviceContainer := services.NewServiceContainer(cfg, repos, m)

	rateLimiter := mustLimiter(cfg, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(m.Middleware())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter, m)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", slog.String("error", err.Error()))
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			cleanup()
			os.Exit(1)
		}
	}
}

// setupRepositories selects Postgres when PGSQL_URL is set and the in-memory
// store otherwise. A REDIS_URL moves idempotency records to Redis.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	var (
		provider portsrepo.RepositoryProvider
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("Using the in-memory store; data is lost on restart")
		provider = memory.New().Provider()
	} else {
		if cfg.MigrationsEnabled {
			if err := pgsql.RunMigrations(cfg.DatabaseURL, logger); err != nil {
				return provider, cleanup, err
			}
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return provider, cleanup, err
		}
		closers = append(closers, func() { database.ClosePgxPool(dbPool, logger) })
		provider = pgsql.NewRepositoryProvider(dbPool)
	}

	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return provider, func() {}, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Error("Error closing Redis client", slog.String("error", err.Error()))
			}
		})
		provider.IdempotencyRepo = redis.NewIdempotencyRepository(client)
		logger.Info("Idempotency records stored in Redis")
	}

	return provider, cleanup, nil
}

func mustLimiter(cfg *config.Config, logger *slog.Logger) *limiter.Limiter {
	if cfg.RateLimit == "" {
		return nil
	}
	lim, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	return lim
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	switch {
	case len(cfg.CORSAllowedOrigins) > 0:
		c.AllowOrigins = cfg.CORSAllowedOrigins
	case cfg.IsProduction:
		c.AllowOriginFunc = func(string) bool { return false }
	default:
		c.AllowAllOrigins = true
	}
	c.AddAllowHeaders("Authorization", handlers.IdempotencyHeader, middleware.CompanyHeader)
	c.AddExposeHeaders("X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining")
	return c
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
