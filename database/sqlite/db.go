package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/internal"
)

var filesTableSchema = map[string]internal.Column{
	"content_key": {DataType: "text"},
	"name":        {DataType: "text"},
	"url":         {DataType: "text"},
	"ts":          {DataType: "integer"},
	"owner":       {DataType: "text"},
	"seq":         {DataType: "integer"},
}

// ValidateSchema checks that the files table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables filekeep.Tables) error {
	tableName := tables.Files
	if !filekeep.IsValidTableName(tableName) {
		return fmt.Errorf("validate schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tableName, err)
	}
	if !exists {
		return fmt.Errorf("validate schema %s: table does not exist", tableName)
	}

	actual, err := tableColumns(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tableName, err)
	}

	if err := internal.CompareSchema(tableName, filesTableSchema, actual); err != nil {
		return fmt.Errorf("validate schema %s: %w", tableName, err)
	}

	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]internal.Column, error) {
	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{
			DataType: strings.ToLower(dataType),
			Nullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return columns, nil
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
