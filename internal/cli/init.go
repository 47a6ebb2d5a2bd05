// Package cli holds the start-up steps shared by cmd/payoff,
// cmd/payoff-server and cmd/payoff-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"payoff/internal/cache"
	"payoff/internal/config"
	"payoff/internal/engine"
	"payoff/internal/log"
	"payoff/internal/services"
	"payoff/internal/storage"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	if format != "" {
		cfg.Format = format
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration could not be loaded", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSessionStore opens the session database or exits the process.
func InitSessionStore(logger *log.Logger, dsn string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dsn, logger)
	if err != nil {
		logger.Error("Failed to initialize session store", log.FieldError, err, "dsn", dsn)
		os.Exit(1)
	}
	return repo
}

// InitPlanner wires the result cache into a planner. A memory cache is swept
// by the returned manager, which the caller must Stop. When Redis cannot be
// reached the planner falls back to an in-process cache.
func InitPlanner(ctx context.Context, logger *log.Logger, cfg *config.Config) (*services.Planner, *cache.Manager) {
	opts := cache.Options{
		Backend:   cfg.CacheBackend,
		Size:      cfg.CacheSize,
		TTL:       cfg.CacheTTL,
		RedisAddr: cfg.RedisAddr,
	}
	cacheLog := logger.WithComponent(log.ComponentCache)

	results, cleaner, err := cache.New[*engine.Result](ctx, opts, cacheLog)
	if err != nil {
		cacheLog.Warn("Result cache backend unavailable, using memory", log.FieldError, err)
		opts.Backend = "memory"
		results, cleaner, _ = cache.New[*engine.Result](ctx, opts, cacheLog)
	}

	manager := cache.NewManager(cacheLog)
	if cleaner != nil {
		manager.Register(cleaner)
		if err := manager.Start(cfg.CacheCleanupSchedule); err != nil {
			cacheLog.Warn("Cache cleanup not scheduled", log.FieldError, err)
		}
	}

	planner := services.NewPlanner(services.Limits{
		DefaultHorizon:            cfg.DefaultHorizonMonths,
		MaxHorizon:                cfg.MaxHorizonMonths,
		MaxAPR:                    cfg.MaxAPRDecimal(),
		Rounding:                  cfg.Rounding(),
		AllowNegativeAmortization: cfg.AllowNegativeAmortization,
	}, results, logger)
	return planner, manager
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled on SIGINT or SIGTERM, and a channel
// closed once cleanup has run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
