// Package sqlite implements filekeep.RecordStore using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/internal"
)

// Store keeps records in one table. The seq column holds each key's
// iteration position.
type Store struct {
	db        *sql.DB
	tableName string
}

// NewStore wraps an open database. The table must already exist.
func NewStore(db *sql.DB, tables filekeep.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &Store{db: db, tableName: quoteIdentifier(tables.Files)}, nil
}

func (s *Store) Get(ctx context.Context, key string) (filekeep.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT name, url, ts, owner FROM %s WHERE content_key = ?`, s.tableName)

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filekeep.FileRecord{}, filekeep.ErrNotFound
		}
		return filekeep.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec filekeep.FileRecord) (filekeep.FileRecord, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT name, url, ts, owner FROM %s WHERE content_key = ?`, s.tableName)

	prev, err := scanRecord(tx.QueryRowContext(ctx, selectQuery, key))
	replaced := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: check existing: %w", err)
	}

	if replaced {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s SET name = ?, url = ?, ts = ?, owner = ? WHERE content_key = ?`, s.tableName)

		_, err = tx.ExecContext(ctx, updateQuery,
			rec.Name, rec.URL, internal.EncodeTimestamp(rec.Timestamp), string(rec.Owner), key)
		if err != nil {
			return filekeep.FileRecord{}, false, fmt.Errorf("put: update: %w", err)
		}
	} else {
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (content_key, name, url, ts, owner, seq)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq) + 1, 0) FROM %s))`, s.tableName, s.tableName)

		_, err = tx.ExecContext(ctx, insertQuery,
			key, rec.Name, rec.URL, internal.EncodeTimestamp(rec.Timestamp), string(rec.Owner))
		if err != nil {
			return filekeep.FileRecord{}, false, fmt.Errorf("put: insert: %w", err)
		}
		prev = filekeep.FileRecord{}
	}

	if err := tx.Commit(); err != nil {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: commit: %w", err)
	}

	return prev, replaced, nil
}

func (s *Store) DeleteOwned(ctx context.Context, key string, owner filekeep.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Writing first takes the write lock, so the follow-up lookup cannot race
	// another process.
	var seq int64
	deleteQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE content_key = ? AND owner = ? RETURNING seq`, s.tableName)
	err = tx.QueryRowContext(ctx, deleteQuery, key, string(owner)).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return s.deleteMiss(ctx, tx, key)
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	// The last key takes over the freed position.
	moveQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET seq = ?
		WHERE seq = (SELECT MAX(seq) FROM %s) AND seq > ?`, s.tableName, s.tableName)
	if _, err := tx.ExecContext(ctx, moveQuery, seq, seq); err != nil {
		return fmt.Errorf("delete: move last: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete: commit: %w", err)
	}

	return nil
}

// deleteMiss explains why an owned delete removed nothing.
func (s *Store) deleteMiss(ctx context.Context, tx *sql.Tx, key string) error {
	var n int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE content_key = ?`, s.tableName) //nolint:gosec // table name is validated
	if err := tx.QueryRowContext(ctx, countQuery, key).Scan(&n); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete: %w", filekeep.ErrNotFound)
	}
	return fmt.Errorf("delete: %w", filekeep.ErrOwnershipViolation)
}

func (s *Store) Scan(ctx context.Context, fn func(key string, rec filekeep.FileRecord) bool) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT content_key, name, url, ts, owner FROM %s ORDER BY seq`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, owner string
		var ts int64
		var rec filekeep.FileRecord

		if err := rows.Scan(&key, &rec.Name, &rec.URL, &ts, &owner); err != nil {
			return fmt.Errorf("scan: row: %w", err)
		}
		rec.Timestamp = internal.DecodeTimestamp(ts)
		rec.Owner = filekeep.Account(owner)

		if !fn(key, rec) {
			return nil
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan: rows: %w", err)
	}

	return nil
}

func scanRecord(row *sql.Row) (filekeep.FileRecord, error) {
	var rec filekeep.FileRecord
	var owner string
	var ts int64

	if err := row.Scan(&rec.Name, &rec.URL, &ts, &owner); err != nil {
		return filekeep.FileRecord{}, err
	}

	rec.Timestamp = internal.DecodeTimestamp(ts)
	rec.Owner = filekeep.Account(owner)
	return rec, nil
}

var _ filekeep.RecordStore = (*Store)(nil)
