package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"walletgenie/internal/amqp"
	"walletgenie/internal/backend"
	"walletgenie/internal/cli"
	"walletgenie/internal/log"
	"walletgenie/internal/sheets/google"
	"walletgenie/internal/worker"
)

func main() {
	resync := flag.String("resync", "", "rebuild the export for `user` from the store and exit")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		logger.Warn("Memory backend is process-local; the worker will not see transactions added by the server")
	}

	// The worker only consumes, so the store is opened without a publisher.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be := cli.OpenBackend(context.Background(), &storeCfg, logger)
	defer cli.Close(logger, be.Cleanup)

	sheetsClient, err := google.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	w := worker.NewExportWorker(be.Store, sheetsClient, logger)

	if *resync != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := w.Resync(ctx, *resync)
		if err != nil {
			logger.Error("Resync failed", log.FieldUserID, *resync, log.FieldCount, n, log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Resync complete", log.FieldUserID, *resync, log.FieldCount, n)
		return
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Export worker started",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"sheet", cfg.GoogleSheetName,
		log.FieldOperation, log.OpStartup)

	if err := client.RunConsumer(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		return
	}
	<-done
}
