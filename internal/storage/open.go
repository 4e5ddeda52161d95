package storage

import (
	"context"
	"fmt"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// Supported knowledge store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates a knowledge store backend.
type Config struct {
	Driver string
	Path   string
	URL    string
}

// Open creates the configured store and applies migrations. SQLite stores
// also preload their most used merchants.
func Open(ctx context.Context, cfg Config) (service.KnowledgeStore, error) {
	var (
		store service.KnowledgeStore
		err   error
	)

	switch cfg.Driver {
	case "", DriverSQLite:
		store, err = NewSQLiteStorage(cfg.Path)
	case DriverPostgres:
		store, err = NewPostgresStorage(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate knowledge store: %w", err)
	}

	if sqlite, ok := store.(*SQLiteStorage); ok {
		if err := sqlite.WarmMerchantCache(ctx, warmMerchantLimit); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to warm merchant cache: %w", err)
		}
	}
	return store, nil
}
