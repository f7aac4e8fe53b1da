// Package bootstrap opens the persistence backend selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"aperture/internal/config"
	"aperture/internal/database"
	"aperture/internal/repository"
	"aperture/internal/repository/memstore"
	"aperture/internal/repository/mongostore"
)

// OpenStore connects to the backend named by cfg.StoreDriver.
// Relational backends get their schema policy applied on connect.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres, config.StoreSQLite, "":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		driver := cfg.StoreDriver
		if driver == "" {
			driver = config.StorePostgres
		}
		return repository.NewGormStore(driver, db), nil
	case config.StoreMongo:
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreMemory:
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
