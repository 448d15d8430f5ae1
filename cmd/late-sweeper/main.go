// Command late-sweeper marks overdue payables on a fixed interval, for
// deployments where the API process is not always running.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"brastech/internal/cli"
	"brastech/internal/log"
	"brastech/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSweep)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg, false)
	sweeper := cli.NewLateSweeper(cfg, res, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)
	defer res.Cleanup()

	run := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, cfg.SweepInterval)
		defer cancel()
		result, err := sweeper.Sweep(sweepCtx)
		switch {
		case errors.Is(err, services.ErrSweepIncomplete):
			logger.Warn("Sweep left records unmarked, retrying next run",
				"marked", result.Marked, "failed", result.Failed, log.FieldError, err)
		case err != nil:
			logger.Error("Sweep failed", log.FieldError, err)
		}
	}

	logger.Info("Starting late sweeper", "interval", cfg.SweepInterval, "concurrency", cfg.SweepConcurrency)
	run()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-done
			logger.Info("Late sweeper stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
