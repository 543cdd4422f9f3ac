package filekeep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// RecordStore defines the ordered mapping from content key to file record.
//
// Iteration order is part of the contract and must be the same for every
// implementation:
//   - Put of a new key appends it at the end.
//   - Put of an existing key replaces the record in place.
//   - DeleteOwned moves the last key into the deleted key's position.
//
// All methods accept a context for cancellation and timeout control.
type RecordStore interface {
	// Get retrieves the record stored under key.
	//
	// Returns:
	//   - FileRecord: a copy of the stored record
	//   - error: ErrNotFound if key has no record, or other storage errors
	Get(ctx context.Context, key string) (FileRecord, error)

	// Put inserts or replaces the record stored under key.
	//
	// Returns:
	//   - FileRecord: the record previously stored under key, if any
	//   - bool: true if a previous record was replaced
	//   - error: any storage error
	Put(ctx context.Context, key string, rec FileRecord) (FileRecord, bool, error)

	// DeleteOwned removes the record stored under key if owner owns it.
	// The ownership check and the removal are one atomic step, also against
	// other processes sharing the backend.
	//
	// Returns:
	//   - error: ErrNotFound if key has no record, ErrOwnershipViolation if
	//     another account owns it (nothing is removed), or other storage errors
	DeleteOwned(ctx context.Context, key string, owner Account) error

	// Scan calls fn for each record in iteration order until fn returns
	// false or the mapping is exhausted. Records passed to fn are copies.
	// fn must not call back into the store.
	Scan(ctx context.Context, fn func(key string, rec FileRecord) bool) error
}

// Registry is the content-addressed file registry. It owns a single
// RecordStore and serializes mutations against it.
type Registry struct {
	mu       sync.RWMutex
	store    RecordStore
	maxFiles int
	logger   *slog.Logger
}

// RegistryConfig holds configuration options for Registry.
type RegistryConfig struct {
	Logger *slog.Logger // Defaults to slog.Default()
}

// NewRegistry creates a Registry on top of store.
func NewRegistry(store RecordStore, cfg RegistryConfig) (*Registry, error) {
	if store == nil {
		return nil, errors.New("new registry: store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		store:    store,
		maxFiles: MaxUserFiles,
		logger:   logger,
	}, nil
}

// AddFile registers a file under the key derived from its name and returns
// that key.
//
// The record is owned by env.Caller and stamped with env.Timestamp. There is
// no ownership check: adding a name that already exists replaces the existing
// record, whoever owned it.
//
// Error types returned:
//   - ErrInvalidInput: env.Caller is empty
//   - context.Canceled or context.DeadlineExceeded: Context was cancelled
//   - Wrapped storage errors
func (r *Registry) AddFile(ctx context.Context, env Env, name, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("add file: %w", err)
	}

	if env.Caller == "" {
		return "", fmt.Errorf("add file: %w: caller identity is required", ErrInvalidInput)
	}

	key := ContentKey(name)
	rec := FileRecord{
		Name:      name,
		URL:       url,
		Timestamp: env.Timestamp,
		Owner:     env.Caller,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, replaced, err := r.store.Put(ctx, key, rec)
	if err != nil {
		return "", fmt.Errorf("add file %s: %w", key, err)
	}

	if replaced && prev.Owner != env.Caller {
		r.logger.WarnContext(ctx, "file record changed owner",
			"key", key, "previous_owner", prev.Owner, "owner", env.Caller)
	}

	return key, nil
}

// GetFile returns the record stored under key. A missing key is reported
// through the bool result, not as an error.
func (r *Registry) GetFile(ctx context.Context, key string) (FileRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, false, fmt.Errorf("get file: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return FileRecord{}, false, nil
	}
	if err != nil {
		return FileRecord{}, false, fmt.Errorf("get file: %w", err)
	}

	return rec, true, nil
}

// GetUserFiles returns the records owned by account, in store iteration
// order, stopping after MaxUserFiles matches.
//
// The scan starts at the beginning of the store every time, so its cost is
// proportional to the position of the last emitted match rather than to the
// number of matches.
func (r *Registry) GetUserFiles(ctx context.Context, account Account) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get user files: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]FileRecord, 0)
	err := r.store.Scan(ctx, func(_ string, rec FileRecord) bool {
		if rec.Owner == account {
			files = append(files, rec)
		}
		return len(files) < r.maxFiles
	})
	if err != nil {
		return nil, fmt.Errorf("get user files: %w", err)
	}

	return files, nil
}

// DeleteFile removes the record stored under key.
//
// Deleting a missing key is a no-op. If the record exists and env.Caller is
// not its owner the call fails with ErrOwnershipViolation and nothing is
// removed.
func (r *Registry) DeleteFile(ctx context.Context, env Env, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.DeleteOwned(ctx, key, env.Caller)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return fmt.Errorf("delete file %s: %w", key, err)
}
