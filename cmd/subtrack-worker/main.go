package main

import (
	"context"
	"errors"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/cli"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting subtrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// The backup target is optional: without a spreadsheet id the worker
	// just idles, which keeps local setups simple.
	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		sheetsClient, err = gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			return
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	if sheetsClient == nil {
		logger.Info("No backup target configured, waiting for shutdown")
		<-ctx.Done()
		return
	}

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

	// Recover anything missed while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	go func() {
		handlers := amqp.Handlers{
			OnSync: func(msg *amqp.SubscriptionSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			},
			OnDelete: func(msg *amqp.SubscriptionDeleteMessage) error {
				return syncWorker.HandleDeleteMessage(ctx, msg)
			},
		}
		if err := amqpClient.Consume(ctx, handlers); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sweep for messages that never arrived.
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down worker...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
			defer shutdownCancel()
			select {
			case <-shutdownCtx.Done():
				logger.Warn("Shutdown timeout reached")
			case <-time.After(2 * time.Second):
				logger.Info("Worker shutdown complete")
			}
			return
		case <-ticker.C:
			if err := syncWorker.ProcessPending(ctx); err != nil {
				logger.Error("Periodic sync failed", "error", err)
			}
		}
	}
}
