package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_GetAbsentReturnsNil(t *testing.T) {
	store := openTestStore(t)

	value, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSQLiteStore_SetGetDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "user", []byte(`{"id":1}`)))

	value, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), value)

	// upsert overwrites
	require.NoError(t, store.Set(ctx, "user", []byte(`{"id":2}`)))
	value, err = store.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":2}`), value)

	require.NoError(t, store.Delete(ctx, "user"))
	value, err = store.Get(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, value)

	// delete is idempotent
	require.NoError(t, store.Delete(ctx, "user"))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "user", []byte("persisted")))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), value)
}
