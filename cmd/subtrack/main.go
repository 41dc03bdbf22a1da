package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"subtrack/internal/amqp"
	"subtrack/internal/cli"
	"subtrack/internal/fx"
	apphttp "subtrack/internal/http"
	"subtrack/internal/services"
	"subtrack/internal/storage/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// Storage backend: sqlite for real deployments, memory for local
	// experimentation without a database file.
	var (
		store     services.Store
		rateCache fx.RateCache
	)
	switch cfg.DataBackend {
	case "memory":
		mem := memory.NewStore()
		store, rateCache = mem, mem
		logger.Info("Initialized memory backend")
	default:
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		store, rateCache = repo, repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	}

	// AMQP is optional: without it writes still succeed, only the backup
	// pipeline is skipped.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, backup sync disabled", "error", err)
		} else {
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	service := services.NewSubscriptionService(store, amqpClient)
	defer service.Close()

	rates := fx.NewProvider(ctx, rateCache, cfg.RateAPIURL, cfg.RateRefreshInterval)

	srv := apphttp.NewServer(":"+cfg.Port, service, rates)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting subtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := rates.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		return
	}
	logger.Info("Server stopped gracefully")
}
