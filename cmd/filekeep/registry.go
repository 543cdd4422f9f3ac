package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/config"
	"github.com/sagarc03/filekeep/database"
)

// openRegistry connects to the configured backend and wraps it in a
// Registry. The schema is created only when migrate is true.
func openRegistry(ctx context.Context, cfg *config.Config, migrate bool) (*filekeep.Registry, func(), error) {
	db, err := database.Open(ctx, cfg.Database.Config, migrate)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	slog.Debug("connected to database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Files)

	registry, err := filekeep.NewRegistry(db.GetStore(), filekeep.RegistryConfig{Logger: slog.Default()})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return registry, func() { _ = db.Close() }, nil
}
