package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/database"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/telemetry"
)

var (
	days      = flag.Int("days", 365, "Delete analyses completed more than this many days ago")
	batchSize = flag.Int("batch", 1000, "Rows deleted per batch")
	dryRun    = flag.Bool("dry-run", false, "Report what would be deleted without deleting")
)

// Prunes fraud analyses past the retention horizon. Meant to run from
// cron; batches keep the lock footprint small on busy tables.
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	slog.SetDefault(logger)

	infraLogger, err := zap.NewProduction()
	if err != nil {
		logger.Error("failed to set up infrastructure logger", "error", err)
		os.Exit(1)
	}
	defer infraLogger.Sync()

	pool, err := database.NewConnectionPool(&cfg.Database, infraLogger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cutoff := time.Now().UTC().AddDate(0, 0, -*days)
	logger.Info("pruning analyses", "cutoff", cutoff, "batch", *batchSize, "dry_run", *dryRun)

	if *dryRun {
		count, err := countExpired(ctx, pool.Pool(), cutoff)
		if err != nil {
			logger.Error("failed to count expired analyses", "error", err)
			os.Exit(1)
		}
		logger.Info("dry run complete", "would_delete", count)
		return
	}

	deleted, err := prune(ctx, pool.Pool(), cutoff, *batchSize)
	if err != nil {
		logger.Error("prune failed", "error", err, "deleted_so_far", deleted)
		os.Exit(1)
	}
	logger.Info("prune complete", "deleted", deleted)
}

func countExpired(ctx context.Context, pool *pgxpool.Pool, cutoff time.Time) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM fraud_analyses WHERE completed_at < $1`, cutoff).Scan(&count)
	return count, err
}

func prune(ctx context.Context, pool *pgxpool.Pool, cutoff time.Time, batch int) (int64, error) {
	query := `
		DELETE FROM fraud_analyses
		WHERE id IN (
			SELECT id FROM fraud_analyses
			WHERE completed_at < $1
			LIMIT $2
		)
	`

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		tag, err := pool.Exec(ctx, query, cutoff, batch)
		if err != nil {
			return total, err
		}

		total += tag.RowsAffected()
		if tag.RowsAffected() < int64(batch) {
			return total, nil
		}
	}
}
