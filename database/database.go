package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/bolt"
	"github.com/sagarc03/filekeep/database/postgres"
	"github.com/sagarc03/filekeep/database/sqlite"
	"github.com/sagarc03/filekeep/memory"
)

// Config holds the configuration for connecting to a record backend.
type Config struct {
	// Type specifies the backend: "memory", "sqlite", "postgres" or "bolt"
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres bolt"`
	// DSN is the connection string, or the file path for bolt
	DSN    string          `mapstructure:"dsn" validate:"required_unless=Type memory"`
	Tables filekeep.Tables `mapstructure:"tables"`
}

// Database is a connected record backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetStore() filekeep.RecordStore
	Close() error
}

// Connect opens the backend named by cfg.Type. It does not migrate or
// validate; callers decide whether the schema may be created.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	switch cfg.Type {
	case "memory":
		return &memoryDatabase{store: memory.NewStore()}, nil
	case "sqlite", "postgres", "bolt":
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}

	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	var (
		db  Database
		err error
	)
	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		var store *bolt.Store
		store, err = bolt.Open(cfg.DSN, cfg.Tables)
		if err == nil {
			db = &boltDatabase{store: store}
		}
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, migrates if requested, then validates the schema. The
// returned Database is ready for GetStore.
func Open(ctx context.Context, cfg Config, migrate bool) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

type memoryDatabase struct {
	store *memory.Store
}

func (m *memoryDatabase) Ping(context.Context) error     { return nil }
func (m *memoryDatabase) Migrate(context.Context) error  { return nil }
func (m *memoryDatabase) Validate(context.Context) error { return nil }
func (m *memoryDatabase) GetStore() filekeep.RecordStore { return m.store }
func (m *memoryDatabase) Close() error                   { return nil }

type boltDatabase struct {
	store *bolt.Store
}

func (b *boltDatabase) Ping(context.Context) error     { return b.store.Ping() }
func (b *boltDatabase) Migrate(context.Context) error  { return b.store.Migrate() }
func (b *boltDatabase) Validate(context.Context) error { return b.store.Validate() }
func (b *boltDatabase) GetStore() filekeep.RecordStore { return b.store }
func (b *boltDatabase) Close() error                   { return b.store.Close() }
