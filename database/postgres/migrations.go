package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filekeep"
)

// Migrate creates the files table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filekeep.Tables) error {
	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Files, err)
	}
	return nil
}

// DropTables removes the files table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filekeep.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.Files}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Files, err)
	}
	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexSeq := pgx.Identifier{fmt.Sprintf("idx_%s_seq", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			content_key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			ts BIGINT NOT NULL,
			owner TEXT NOT NULL,
			seq BIGINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (seq);
	`,
		quotedTable,
		indexSeq, quotedTable,
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}
