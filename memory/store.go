// Package memory implements filekeep.RecordStore in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/sagarc03/filekeep"
)

// Store is an ordered map from content key to record. Keys keep their
// insertion position; removal swaps the last key into the freed slot.
type Store struct {
	mu      sync.RWMutex
	keys    []string
	index   map[string]int
	records map[string]filekeep.FileRecord
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		index:   make(map[string]int),
		records: make(map[string]filekeep.FileRecord),
	}
}

func (s *Store) Get(ctx context.Context, key string) (filekeep.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return filekeep.FileRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return filekeep.FileRecord{}, filekeep.ErrNotFound
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec filekeep.FileRecord) (filekeep.FileRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return filekeep.FileRecord{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, replaced := s.records[key]
	if !replaced {
		s.index[key] = len(s.keys)
		s.keys = append(s.keys, key)
	}
	s.records[key] = rec

	return prev, replaced, nil
}

func (s *Store) DeleteOwned(ctx context.Context, key string, owner filekeep.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[key]
	if !ok {
		return filekeep.ErrNotFound
	}
	if s.records[key].Owner != owner {
		return filekeep.ErrOwnershipViolation
	}

	last := len(s.keys) - 1
	if pos != last {
		moved := s.keys[last]
		s.keys[pos] = moved
		s.index[moved] = pos
	}
	s.keys = s.keys[:last]

	delete(s.index, key)
	delete(s.records, key)

	return nil
}

func (s *Store) Scan(ctx context.Context, fn func(key string, rec filekeep.FileRecord) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(key, s.records[key]) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

var _ filekeep.RecordStore = (*Store)(nil)
