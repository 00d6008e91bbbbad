package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kattabharath12/tax-1040/internal/common"
	repo "github.com/kattabharath12/tax-1040/internal/repository"
)

// ConnectDB opens the configured database and brings its schema up to date.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	var (
		db  *repo.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = repo.OpenSQLite(ctx, cfg.DSN, logger)
	case "postgres", "":
		db, err = repo.Open(ctx, repo.Config{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.HealthCheck(ctx, db, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	if err := repo.Migrate(ctx, db, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}
