package main

import (
	"context"
	"flag"
	"os"
	"time"

	"walletgenie/internal/cli"
	"walletgenie/internal/config"
	"walletgenie/internal/importer"
	"walletgenie/internal/log"
)

func main() {
	file := flag.String("file", "", "CSV `path` with date, type, category, description and amount columns")
	user := flag.String("user", "", "user ID to import into (default DEFAULT_USER_ID)")
	defaultCategory := flag.String("default-category", "", "category for rows with an empty category cell")
	strict := flag.Bool("strict", false, "abort without writing when any row is invalid")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentImport)

	if *file == "" {
		logger.Error("Missing -file flag")
		flag.Usage()
		os.Exit(2)
	}
	userID := *user
	if userID == "" {
		userID = cfg.DefaultUserID
	}
	if !config.ValidUserID(userID) {
		logger.Error("Invalid user ID", log.FieldUserID, userID)
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open CSV file", "file", *file, log.FieldError, err)
		os.Exit(1)
	}
	res, err := importer.ReadCSV(f, importer.Options{DefaultCategory: *defaultCategory})
	f.Close()
	if err != nil {
		logger.Error("Failed to read CSV file", "file", *file, log.FieldError, err)
		os.Exit(1)
	}
	for _, rowErr := range res.Errors {
		logger.Warn("Skipping row", log.FieldError, rowErr, log.FieldOperation, log.OpParse)
	}
	if *strict && len(res.Errors) > 0 {
		logger.Error("Invalid rows found, nothing imported", log.FieldCount, len(res.Errors))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	be := cli.OpenBackend(ctx, cfg, logger)
	defer cli.Close(logger, be.Cleanup)
	svc := cli.BuildServices(cfg, be.Store, be.Publisher, logger)

	logger.Info("Importing transactions",
		log.FieldUserID, userID,
		log.FieldCount, len(res.Transactions),
		"skipped", len(res.Errors),
		"file", *file)

	n, err := svc.Transactions.Import(ctx, userID, res.Transactions)
	if err != nil {
		logger.Error("Import failed",
			log.FieldUserID, userID,
			"imported", n,
			log.FieldError, err,
			log.FieldOperation, log.OpImport)
		cli.Close(logger, be.Cleanup)
		os.Exit(1)
	}
	logger.Info("Import complete",
		log.FieldUserID, userID,
		"imported", n,
		"skipped", len(res.Errors),
		log.FieldOperation, log.OpImport)
}
