package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"payoff/internal/amqp"
	"payoff/internal/cli"
	"payoff/internal/export"
	apphttp "payoff/internal/http"
	"payoff/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	sessions := cli.InitSessionStore(logger, cfg.SessionDBPath)
	planner, cacheManager := cli.InitPlanner(context.Background(), logger, cfg)

	deps := apphttp.Deps{Planner: planner, Sessions: sessions}

	// Both integrations are optional; their endpoints answer 503 without them.
	var jobs *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(amqp.Config{
			URL:          cfg.AMQPURL,
			Exchange:     cfg.AMQPExchange,
			RequestQueue: cfg.AMQPRequestQueue,
			ResultQueue:  cfg.AMQPResultQueue,
			Prefetch:     cfg.AMQPPrefetch,
		}, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, job submission disabled", log.FieldError, err)
		} else {
			jobs = c
			deps.Jobs = c
		}
	}
	if cfg.SheetsEnabled() {
		sheets, err := export.NewSheetsClient(context.Background(), export.SheetsConfig{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		deps.Exporter = sheets
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RateLimit:    cfg.RateLimit,
	}, deps, logger)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if jobs != nil {
			jobs.Close()
		}
		if err := sessions.Close(); err != nil {
			logger.Error("Failed to close session store", log.FieldError, err)
		}
	})

	logger.Info("Starting payoff server",
		"port", cfg.Port,
		"cache", cfg.CacheBackend,
		"jobs", deps.Jobs != nil,
		"export", deps.Exporter != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
