package bootstrap

import (
	"context"
	"fmt"

	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/store"
)

// initializeDatabase opens the registry database and runs migrations
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
