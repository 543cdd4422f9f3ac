package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: filekeep.Tables{Files: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()

	db, err := database.Connect(context.Background(), newTestConfig(tableName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"invalid", ""} {
		_, err := database.Connect(context.Background(), database.Config{
			Type:   typ,
			DSN:    "whatever",
			Tables: filekeep.Tables{Files: "files"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database type")
	}
}

func TestConnect_InvalidTableName(t *testing.T) {
	t.Parallel()

	_, err := database.Connect(context.Background(), database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: filekeep.Tables{Files: "drop table;"},
	})
	assert.Error(t, err)
}

func TestDatabase_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "validate_test")

	require.NoError(t, db.Ping(ctx))
	assert.Error(t, db.Validate(ctx), "validate should fail without tables")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

func TestOpen_AllEmbeddedBackends(t *testing.T) {
	t.Parallel()

	configs := map[string]database.Config{
		"memory": {Type: "memory"},
		"sqlite": newTestConfig("open_test"),
		"bolt": {
			Type:   "bolt",
			DSN:    filepath.Join(t.TempDir(), "filekeep.db"),
			Tables: filekeep.Tables{Files: "open_test"},
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			db, err := database.Open(ctx, cfg, true)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			registry, err := filekeep.NewRegistry(db.GetStore(), filekeep.RegistryConfig{})
			require.NoError(t, err)

			for _, name := range []string{"a", "b", "c"} {
				_, err := registry.AddFile(ctx, filekeep.Env{Caller: "alice", Timestamp: 1}, name, "u")
				require.NoError(t, err)
			}
			require.NoError(t, registry.DeleteFile(ctx, filekeep.Env{Caller: "alice"}, filekeep.ContentKey("a")))

			files, err := registry.GetUserFiles(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, files, 2)
			assert.Equal(t, "c", files[0].Name)
			assert.Equal(t, "b", files[1].Name)
		})
	}
}

func TestOpen_WithoutMigrateFailsOnEmptyDatabase(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), newTestConfig("nomigrate_test"), false)
	assert.Error(t, err)
}
