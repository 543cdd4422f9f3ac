package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/filekeep"
)

// quoteIdentifier quotes a SQLite identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Migrate creates the files table and its seq index in one transaction.
// It is safe to run against an already migrated database.
func Migrate(ctx context.Context, db *sql.DB, tables filekeep.Tables) error {
	table := quoteIdentifier(tables.Files)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			content_key TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			ts INTEGER NOT NULL,
			owner TEXT NOT NULL,
			seq INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + quoteIdentifier("idx_"+tables.Files+"_seq") + ` ON ` + table + ` (seq)`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate up %s: begin: %w", tables.Files, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate up %s: %w", tables.Files, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate up %s: commit: %w", tables.Files, err)
	}
	return nil
}

// DropTables removes the files table.
func DropTables(ctx context.Context, db *sql.DB, tables filekeep.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Files)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Files, err)
	}
	return nil
}
