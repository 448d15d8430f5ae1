// Package cli holds the start-up steps shared by cmd/brastech,
// cmd/late-sweeper and cmd/sheets-sync.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"brastech/internal/backend"
	"brastech/internal/config"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: component})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Clock returns the system clock in the configured timezone.
func Clock(cfg *config.Config) core.Clock {
	loc, err := cfg.Location()
	if err != nil {
		// Validate already rejected bad zones.
		loc = time.Local
	}
	return core.SystemClock{Location: loc}
}

// InitBackend creates the store and optional event client, exiting on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, requireAMQP bool) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	bcfg.RequireAMQP = requireAMQP
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "type", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewTransactionService wires the ledger rules from configuration.
func NewTransactionService(cfg *config.Config, res *backend.BackendResult, logger *log.Logger) *services.TransactionService {
	opts := []services.TransactionOption{
		services.WithMonthOverflow(cfg.MonthOverflow),
		services.WithLogger(logger),
	}
	if res.Events != nil {
		opts = append(opts, services.WithEvents(res.Events))
	}
	return services.NewTransactionService(res.Store, Clock(cfg), opts...)
}

// NewLateSweeper wires the sweep from configuration.
func NewLateSweeper(cfg *config.Config, res *backend.BackendResult, logger *log.Logger) *services.LateSweeper {
	opts := []services.SweeperOption{
		services.WithSweepConcurrency(cfg.SweepConcurrency),
		services.WithSweepLogger(logger),
	}
	if res.Events != nil {
		opts = append(opts, services.WithSweepEvents(res.Events))
	}
	return services.NewLateSweeper(res.Store, Clock(cfg), opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs before cancellation; the returned channel closes once it finished or
// timeout elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
