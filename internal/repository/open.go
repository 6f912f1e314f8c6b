package repository

import (
	"context"
	"fmt"

	"auction-house/internal/config"
	"auction-house/utils"
)

// Open builds the AuctionDB backend named by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig, verbose bool) (AuctionDB, error) {
	switch cfg.Driver {
	case "", "memory":
		utils.Info("using in-memory storage", nil)
		return NewMemoryRepo(), nil
	case "sqlite":
		utils.Info("using sqlite storage", map[string]any{"path": cfg.SQLitePath})
		repo, err := NewSQLiteRepo(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		utils.Info("using postgres storage", map[string]any{"host": cfg.Postgres.Host, "dbname": cfg.Postgres.DBName})
		repo, err := OpenPostgres(cfg.Postgres.DSN(), verbose)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
