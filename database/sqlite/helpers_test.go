package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database/sqlite"
	"github.com/stretchr/testify/require"
)

// uniqueTable returns a fresh valid table name so tests can share one
// database.
func uniqueTable() string {
	return "files_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// setupTestStore creates a store over a fresh in-memory database with a
// unique table name.
func setupTestStore(t *testing.T) filekeep.RecordStore {
	t.Helper()

	ctx := context.Background()
	tables := filekeep.Tables{Files: uniqueTable()}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetStore()
}
