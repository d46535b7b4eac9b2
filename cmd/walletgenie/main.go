package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"walletgenie/internal/cli"
	"walletgenie/internal/config"
	apphttp "walletgenie/internal/http"
	"walletgenie/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	be := cli.OpenBackend(context.Background(), cfg, logger)
	svc := cli.BuildServices(cfg, be.Store, be.Publisher, logger)
	svc.StartCleanup()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories:   svc.Categories,
		Transactions: svc.Transactions,
		Budgets:      svc.Budgets,
		Goals:        svc.Goals,
		Store:        be.Store,
		Logger:       logger,
		Caches:       svc.Caches,
		CacheSizes: map[string]apphttp.Sizer{
			"categories":   svc.CategoryMemo,
			"transactions": svc.TxMemo,
		},
		Currency:           apphttp.Currency{Symbol: cfg.CurrencySymbol, Code: cfg.CurrencyCode},
		DefaultUserID:      cfg.DefaultUserID,
		ValidUserID:        config.ValidUserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting walletgenie server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cli.Close(logger, be.Cleanup)
		os.Exit(1)
	}

	<-done
	cli.Close(logger, be.Cleanup)
	logger.Info("Server stopped gracefully")
}
