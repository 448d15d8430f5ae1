// Command sheets-sync mirrors the ledger into a Google spreadsheet. It
// writes a full snapshot at startup and again whenever a transaction event
// arrives on the broker.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"brastech/internal/backend"
	"brastech/internal/cli"
	"brastech/internal/log"
	"brastech/internal/services"
	"brastech/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSheets)
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx := context.Background()
	res := cli.InitBackend(startCtx, logger, cfg, true)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}
	writer, err := backend.NewFactory(logger).CreateSnapshotWriter(startCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize snapshot writer", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	exporter := services.NewExporter(res.Store, res.Store, res.Store)
	syncWorker := worker.NewSyncWorker(exporter, writer, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)
	defer res.Cleanup()

	if err := syncWorker.StartupSync(ctx); err != nil {
		// Events will retry the sync.
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	logger.Info("Consuming transaction events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"spreadsheet", cfg.SheetsEnabled())
	err = res.Events.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	<-done
	logger.Info("Sheets sync stopped", "last_sync", syncWorker.LastSync())
}
