// Package bolt implements filekeep.RecordStore on an embedded bbolt file.
//
// Two buckets hold the data. The records bucket maps each content key to its
// gob-encoded record and iteration position. The order bucket maps 8-byte
// big-endian positions back to content keys, so a cursor walk over it yields
// keys in iteration order.
package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/internal"
	"go.etcd.io/bbolt"
)

type storedRecord struct {
	Name      string
	URL       string
	Timestamp uint64
	Owner     string
	Seq       uint64
}

// Store persists records in a bbolt database.
type Store struct {
	db      *bbolt.DB
	records []byte
	order   []byte
}

// Open opens or creates the database at path and makes sure the buckets for
// tables exist. The parent directory is created if needed.
func Open(path string, tables filekeep.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open bolt: create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	s := &Store{
		db:      db,
		records: []byte(tables.Files),
		order:   []byte(tables.Files + "_order"),
	}

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the buckets if they do not exist.
func (s *Store) Migrate() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{s.records, s.order} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate bolt: %w", err)
	}
	return nil
}

// Validate checks that both buckets exist and index the same number of keys.
func (s *Store) Validate() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(s.records)
		ob := tx.Bucket(s.order)
		if rb == nil || ob == nil {
			return fmt.Errorf("validate bolt: bucket %q does not exist", s.records)
		}
		if r, o := rb.Stats().KeyN, ob.Stats().KeyN; r != o {
			return fmt.Errorf("validate bolt: %d records but %d positions", r, o)
		}
		return nil
	})
}

// Ping fails once the database has been closed.
func (s *Store) Ping() error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key string) (filekeep.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return filekeep.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	var rec filekeep.FileRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		stored, err := s.load(tx, key)
		if err != nil {
			return err
		}
		rec = stored.record()
		return nil
	})
	if err != nil {
		if errors.Is(err, filekeep.ErrNotFound) {
			return filekeep.FileRecord{}, filekeep.ErrNotFound
		}
		return filekeep.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec filekeep.FileRecord) (filekeep.FileRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: %w", err)
	}

	var prev filekeep.FileRecord
	var replaced bool

	err := s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := s.load(tx, key)
		switch {
		case err == nil:
			prev, replaced = existing.record(), true
			return s.save(tx, key, rec, existing.Seq)
		case errors.Is(err, filekeep.ErrNotFound):
		default:
			return err
		}

		ob := tx.Bucket(s.order)
		var seq uint64
		if last, _ := ob.Cursor().Last(); last != nil {
			pos, ok := internal.ParsePositionKey(last)
			if !ok {
				return fmt.Errorf("corrupt position key %x", last)
			}
			seq = pos + 1
		}

		if err := ob.Put(internal.PositionKey(seq), []byte(key)); err != nil {
			return fmt.Errorf("put position: %w", err)
		}
		return s.save(tx, key, rec, seq)
	})
	if err != nil {
		return filekeep.FileRecord{}, false, fmt.Errorf("put: %w", err)
	}

	return prev, replaced, nil
}

func (s *Store) DeleteOwned(ctx context.Context, key string, owner filekeep.Account) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := s.load(tx, key)
		if err != nil {
			return err
		}
		if existing.Owner != string(owner) {
			return filekeep.ErrOwnershipViolation
		}

		if err := tx.Bucket(s.records).Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}

		ob := tx.Bucket(s.order)
		lastPos, lastKey := ob.Cursor().Last()
		if lastPos == nil {
			return fmt.Errorf("position index is empty")
		}
		lastPos = bytes.Clone(lastPos)
		lastKey = bytes.Clone(lastKey)

		freed := internal.PositionKey(existing.Seq)
		if !bytes.Equal(lastPos, freed) {
			// The last key takes over the freed position.
			moved, err := s.load(tx, string(lastKey))
			if err != nil {
				return fmt.Errorf("load last: %w", err)
			}
			if err := s.save(tx, string(lastKey), moved.record(), existing.Seq); err != nil {
				return err
			}
			if err := ob.Put(freed, lastKey); err != nil {
				return fmt.Errorf("move position: %w", err)
			}
		}

		if err := ob.Delete(lastPos); err != nil {
			return fmt.Errorf("delete position: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, filekeep.ErrNotFound) {
			return filekeep.ErrNotFound
		}
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

func (s *Store) Scan(ctx context.Context, fn func(key string, rec filekeep.FileRecord) bool) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.order).Cursor()
		for pos, key := c.First(); pos != nil; pos, key = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			stored, err := s.load(tx, string(key))
			if err != nil {
				return fmt.Errorf("load %q: %w", key, err)
			}

			if !fn(string(key), stored.record()) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	return nil
}

func (s *Store) load(tx *bbolt.Tx, key string) (storedRecord, error) {
	data := tx.Bucket(s.records).Get([]byte(key))
	if data == nil {
		return storedRecord{}, filekeep.ErrNotFound
	}

	var stored storedRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return storedRecord{}, fmt.Errorf("decode record: %w", err)
	}
	return stored, nil
}

func (s *Store) save(tx *bbolt.Tx, key string, rec filekeep.FileRecord, seq uint64) error {
	stored := storedRecord{
		Name:      rec.Name,
		URL:       rec.URL,
		Timestamp: rec.Timestamp,
		Owner:     string(rec.Owner),
		Seq:       seq,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err := tx.Bucket(s.records).Put([]byte(key), buf.Bytes()); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (r storedRecord) record() filekeep.FileRecord {
	return filekeep.FileRecord{
		Name:      r.Name,
		URL:       r.URL,
		Timestamp: r.Timestamp,
		Owner:     filekeep.Account(r.Owner),
	}
}

var _ filekeep.RecordStore = (*Store)(nil)
