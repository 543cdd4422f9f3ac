package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filekeep"
)

// database ties a pool to the Store over its files table. Ping comes from
// the embedded Store.
type database struct {
	*Store
	tables filekeep.Tables
}

// Connect opens a pgx pool on dsn. The pool connects lazily, so a wrong DSN
// surfaces on the first Ping or query.
func Connect(ctx context.Context, dsn string, tables filekeep.Tables) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	store, err := NewStore(pool, tables)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{Store: store, tables: tables}, nil
}

// Migrate creates the files table when it is missing.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate compares the files table with the expected columns.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

func (d *database) GetStore() filekeep.RecordStore {
	return d.Store
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}
