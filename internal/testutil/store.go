package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velocitycmdb/velocitycmdb/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	require.NoError(t, err, "testutil.NewStore")
	t.Cleanup(func() { db.Close() })
	return db
}
