package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/accumate/docfilter/internal/core/config"
	"github.com/accumate/docfilter/internal/core/db"
)

// loadConfig reads --config and applies --db-url.
func loadConfig() (*config.FilterAPIConfig, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, nil
}

// openDatabase connects to the configured database without touching the
// schema.
func openDatabase(ctx context.Context, cfg *config.FilterAPIConfig) (*sqlx.DB, error) {
	url, err := cfg.ResolvedDatabaseURL()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openStore connects, refuses a schema with pending migrations and loads the
// named queries.
func openStore(ctx context.Context, cfg *config.FilterAPIConfig) (*sqlx.DB, *db.Queries, error) {
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'docfilter migrate up' first", s.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}
