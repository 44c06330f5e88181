// budgeteer-import parses a bank statement from the command line, runs
// classification and either prints the drafts (dry run) or commits them
// to the ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"budgeteer/internal/classify"
	"budgeteer/internal/config"
	"budgeteer/internal/importer"
	applog "budgeteer/internal/log"
	"budgeteer/internal/statement"
	"budgeteer/internal/storage"
)

func main() {
	var (
		file   = flag.String("file", "", "statement file to import (.csv, .xlsx or .xls)")
		dryRun = flag.Bool("dry-run", false, "parse and classify only, do not write to the ledger")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: budgeteer-import -file statement.csv [-dry-run]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, logger, *file, *dryRun); err != nil {
		logger.Error("Import failed", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, file string, dryRun bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	parser := statement.New(logger)
	suggester := classify.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	coordinator := classify.NewCoordinator(suggester, repo, logger)

	session := importer.NewSession(parser, coordinator, repo, repo, logger)
	if err := session.Upload(ctx, data, filepath.Base(file)); err != nil {
		return err
	}

	snap := session.Snapshot()
	fmt.Printf("Parsed %d transactions from %s:\n", len(snap.Drafts), file)
	for _, d := range snap.Drafts {
		bucket := d.Bucket
		if bucket == "" {
			bucket = "(unassigned)"
		}
		fmt.Printf("  %-12s %10.2f  %-20s %s\n", d.Date[:10], d.Amount, bucket, d.Note)
	}

	if dryRun {
		fmt.Println("Dry run, nothing committed.")
		return nil
	}

	result, err := session.Commit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Committed %d transactions", len(result.Committed))
	if len(result.Failed) > 0 {
		fmt.Printf(", %d failed:\n", len(result.Failed))
		for id, ferr := range result.Failed {
			fmt.Printf("  %s: %v\n", id, ferr)
		}
	} else {
		fmt.Println(".")
	}
	return nil
}
