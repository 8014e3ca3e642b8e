// Command legacy-import copies jobs from the previous deployment's SQL Server
// database. Jobs whose code already exists are skipped, so it can be re-run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/database"
	"github.com/fieldops/backoffice-api/internal/legacy"
	"github.com/fieldops/backoffice-api/internal/logger"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Import error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	batchSize := flag.Int("batch", 0, "rows per legacy query (defaults to LEGACY_BATCHSIZE)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if !cfg.Legacy.Enabled {
		return errors.New("legacy import is not configured (set LEGACY_URL)")
	}

	source, err := legacy.NewClient(&cfg.Legacy, log)
	if err != nil {
		return fmt.Errorf("failed to connect to legacy database: %w", err)
	}
	defer source.Close()

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	importer := service.NewLegacyImportService(
		repository.NewJobRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewUserRepository(db),
		service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log),
		db,
		log,
	)

	size := *batchSize
	if size <= 0 {
		size = cfg.Legacy.BatchSize
	}
	result, err := importer.ImportJobs(ctx, source, size)
	if result != nil {
		for _, f := range result.Failed {
			log.Warn("legacy job not imported",
				zap.Int64("legacy_id", f.LegacyID),
				zap.String("job_code", f.JobCode),
				zap.String("reason", f.Reason))
		}
		fmt.Printf("imported=%d skipped=%d failed=%d\n", result.Imported, result.Skipped, len(result.Failed))
	}
	return err
}
