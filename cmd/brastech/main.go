package main

import (
	"context"
	"os"
	"time"

	"brastech/internal/cli"
	apphttp "brastech/internal/http"
	"brastech/internal/log"
	"brastech/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	res := cli.InitBackend(ctx, logger, cfg, false)

	svc := cli.NewTransactionService(cfg, res, logger)
	book := services.NewBook(svc, res.Store, res.Store, logger)
	roster := services.NewRosterService(res.Store, res.Store, book, logger)
	sweeper := cli.NewLateSweeper(cfg, res, logger)

	if cfg.BootstrapAdminEmail != "" {
		created, err := roster.EnsureAdmin(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail)
		if err != nil {
			logger.Error("Failed to bootstrap admin", log.FieldError, err)
			os.Exit(1)
		}
		if created {
			logger.Info("Bootstrap admin created", log.FieldUserEmail, cfg.BootstrapAdminEmail)
		}
	}

	// Overdue payables are marked before the first read.
	sweep, err := book.LoadAfterSweep(ctx, sweeper)
	if err != nil {
		logger.Error("Initial load failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger loaded",
		"transactions", len(book.Transactions()),
		"clients", len(book.Clients()),
		"users", len(book.Users()),
		"marked_overdue", sweep.Marked)

	deps := apphttp.Deps{
		Book:     book,
		Roster:   roster,
		Exporter: services.NewExporter(res.Store, res.Store, res.Store),
		Sweeper:  sweeper,
		Clock:    cli.Clock(cfg),
		Filter:   services.FilterFromConfig(cfg.IncludeAllStatuses),
	}
	if p, ok := res.Store.(apphttp.Pinger); ok {
		deps.Pinger = p
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		Logger:             logger,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		res.Cleanup()
	})

	logger.Info("Starting brastech server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil,
		"include_all_statuses", cfg.IncludeAllStatuses)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
