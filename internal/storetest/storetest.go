// Package storetest holds the behaviour every filekeep.RecordStore must share.
package storetest

import (
	"context"
	"math"
	"testing"

	"github.com/sagarc03/filekeep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a RecordStore implementation. newStore must return an empty
// store for every call.
func Run(t *testing.T, newStore func(t *testing.T) filekeep.RecordStore) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, filekeep.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		rec := record("report.pdf", "alice", 42)

		prev, replaced, err := store.Put(ctx, "k1", rec)
		require.NoError(t, err)
		assert.False(t, replaced)
		assert.Equal(t, filekeep.FileRecord{}, prev)

		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("put replaces in place", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		put(t, store, "a", record("a", "alice", 1))
		put(t, store, "b", record("b", "alice", 2))
		put(t, store, "c", record("c", "alice", 3))

		replacement := record("b2", "bob", 9)
		prev, replaced, err := store.Put(ctx, "b", replacement)
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, filekeep.Account("alice"), prev.Owner)

		assert.Equal(t, []string{"a", "b", "c"}, keys(t, store))

		got, err := store.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, replacement, got)
	})

	t.Run("delete missing key", func(t *testing.T) {
		store := newStore(t)

		err := store.DeleteOwned(context.Background(), "missing", "alice")
		assert.ErrorIs(t, err, filekeep.ErrNotFound)
	})

	t.Run("delete by another account removes nothing", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		put(t, store, "a", record("a", "alice", 1))
		put(t, store, "b", record("b", "bob", 2))

		err := store.DeleteOwned(ctx, "a", "bob")
		assert.ErrorIs(t, err, filekeep.ErrOwnershipViolation)
		assert.Equal(t, []string{"a", "b"}, keys(t, store))

		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, filekeep.Account("alice"), got.Owner)
	})

	t.Run("delete checks the current owner", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		put(t, store, "a", record("a", "alice", 1))
		put(t, store, "a", record("a", "bob", 2))

		assert.ErrorIs(t, store.DeleteOwned(ctx, "a", "alice"), filekeep.ErrOwnershipViolation)
		require.NoError(t, store.DeleteOwned(ctx, "a", "bob"))
		assert.Empty(t, keys(t, store))
	})

	t.Run("delete swaps last key into freed position", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		for _, k := range []string{"a", "b", "c", "d"} {
			put(t, store, k, record(k, "alice", 1))
		}

		require.NoError(t, store.DeleteOwned(ctx, "b", "alice"))
		assert.Equal(t, []string{"a", "d", "c"}, keys(t, store))

		require.NoError(t, store.DeleteOwned(ctx, "a", "alice"))
		assert.Equal(t, []string{"c", "d"}, keys(t, store))

		require.NoError(t, store.DeleteOwned(ctx, "d", "alice"))
		assert.Equal(t, []string{"c"}, keys(t, store))

		_, err := store.Get(ctx, "b")
		assert.ErrorIs(t, err, filekeep.ErrNotFound)
	})

	t.Run("reinsert after delete appends", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		for _, k := range []string{"a", "b", "c"} {
			put(t, store, k, record(k, "alice", 1))
		}

		require.NoError(t, store.DeleteOwned(ctx, "a", "alice"))
		put(t, store, "a", record("a", "alice", 2))

		assert.Equal(t, []string{"c", "b", "a"}, keys(t, store))
	})

	t.Run("delete only key", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		put(t, store, "a", record("a", "alice", 1))
		require.NoError(t, store.DeleteOwned(ctx, "a", "alice"))
		assert.Empty(t, keys(t, store))

		put(t, store, "b", record("b", "alice", 1))
		assert.Equal(t, []string{"b"}, keys(t, store))
	})

	t.Run("scan stops when callback returns false", func(t *testing.T) {
		store := newStore(t)

		for _, k := range []string{"a", "b", "c"} {
			put(t, store, k, record(k, "alice", 1))
		}

		var seen []string
		err := store.Scan(context.Background(), func(key string, _ filekeep.FileRecord) bool {
			seen = append(seen, key)
			return len(seen) < 2
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("scan empty store", func(t *testing.T) {
		store := newStore(t)
		assert.Empty(t, keys(t, store))
	})

	t.Run("full uint64 timestamp range", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		put(t, store, "max", record("max", "alice", math.MaxUint64))
		put(t, store, "zero", record("zero", "alice", 0))

		got, err := store.Get(ctx, "max")
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), got.Timestamp)

		got, err = store.Get(ctx, "zero")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), got.Timestamp)
	})

	t.Run("keys with base64 characters", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		key := filekeep.ContentKey("report.pdf")
		rec := record("report.pdf", "alice.near", 7)

		put(t, store, key, rec)

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})
}

func record(name string, owner filekeep.Account, ts uint64) filekeep.FileRecord {
	return filekeep.FileRecord{
		Name:      name,
		URL:       "https://files.example.com/" + name,
		Timestamp: ts,
		Owner:     owner,
	}
}

func put(t *testing.T, store filekeep.RecordStore, key string, rec filekeep.FileRecord) {
	t.Helper()
	_, _, err := store.Put(context.Background(), key, rec)
	require.NoError(t, err)
}

func keys(t *testing.T, store filekeep.RecordStore) []string {
	t.Helper()
	out := []string{}
	err := store.Scan(context.Background(), func(key string, _ filekeep.FileRecord) bool {
		out = append(out, key)
		return true
	})
	require.NoError(t, err)
	return out
}
