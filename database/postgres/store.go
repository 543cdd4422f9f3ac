// Package postgres implements filekeep.RecordStore using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/internal"
)

// Store keeps records in one table. The seq column holds each key's
// iteration position. Writers take a table lock so that concurrent servers
// sharing the database cannot assign the same position twice.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewStore wraps a pool. The table must already exist.
func NewStore(pool *pgxpool.Pool, tables filekeep.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &Store{pool: pool, tableName: pgx.Identifier{tables.Files}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (filekeep.FileRecord, error) {
	query := fmt.Sprintf(`SELECT name, url, ts, owner FROM %s WHERE content_key = $1`, s.tableName)

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filekeep.FileRecord{}, filekeep.ErrNotFound
		}
		return filekeep.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec filekeep.FileRecord) (filekeep.FileRecord, bool, error) {
	var prev filekeep.FileRecord
	var replaced bool

	err := s.writeTx(ctx, func(tx pgx.Tx) error {
		selectQuery := fmt.Sprintf(`SELECT name, url, ts, owner FROM %s WHERE content_key = $1`, s.tableName)

		existing, err := scanRecord(tx.QueryRow(ctx, selectQuery, key))
		switch {
		case err == nil:
			prev, replaced = existing, true
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return fmt.Errorf("check existing: %w", err)
		}

		ts := internal.EncodeTimestamp(rec.Timestamp)

		if replaced {
			updateQuery := fmt.Sprintf(`
				UPDATE %s SET name = $1, url = $2, ts = $3, owner = $4
				WHERE content_key = $5
			`, s.tableName)
			if _, err := tx.Exec(ctx, updateQuery, rec.Name, rec.URL, ts, string(rec.Owner), key); err != nil {
				return fmt.Errorf("update: %w", err)
			}
			return nil
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (content_key, name, url, ts, owner, seq)
			VALUES ($1, $2, $3, $4, $5, (SELECT COALESCE(MAX(seq) + 1, 0) FROM %s))
		`, s.tableName, s.tableName)
		if _, err := tx.Exec(ctx, insertQuery, key, rec.Name, rec.URL, ts, string(rec.Owner)); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: %w", err)
	}

	return prev, replaced, nil
}

// DeleteOwned removes key only while owner still owns it. The write lock of
// writeTx keeps servers sharing the table from changing the owner between
// the check and the removal.
func (s *Store) DeleteOwned(ctx context.Context, key string, owner filekeep.Account) error {
	err := s.writeTx(ctx, func(tx pgx.Tx) error {
		var seq int64
		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE content_key = $1 AND owner = $2 RETURNING seq`, s.tableName)
		err := tx.QueryRow(ctx, deleteQuery, key, string(owner)).Scan(&seq)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE content_key = $1)`, s.tableName)
			if err := tx.QueryRow(ctx, existsQuery, key).Scan(&exists); err != nil {
				return fmt.Errorf("check existing: %w", err)
			}
			if exists {
				return filekeep.ErrOwnershipViolation
			}
			return filekeep.ErrNotFound
		}
		if err != nil {
			return err
		}

		// The last key takes over the freed position.
		moveQuery := fmt.Sprintf(`
			UPDATE %s SET seq = $1
			WHERE seq = (SELECT MAX(seq) FROM %s) AND seq > $1
		`, s.tableName, s.tableName)
		if _, err := tx.Exec(ctx, moveQuery, seq); err != nil {
			return fmt.Errorf("move last: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

func (s *Store) Scan(ctx context.Context, fn func(key string, rec filekeep.FileRecord) bool) error {
	query := fmt.Sprintf(`SELECT content_key, name, url, ts, owner FROM %s ORDER BY seq`, s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer rows.Close()

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

// writeTx runs fn in a transaction holding a lock that excludes other
// writers but not readers.
func (s *Store) writeTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockQuery := fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE`, s.tableName)
	if _, err := tx.Exec(ctx, lockQuery); err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (filekeep.FileRecord, error) {
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
