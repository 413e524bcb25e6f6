package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alice() Identity {
	return Identity{
		ID:        1,
		Username:  "alice",
		Email:     "alice@x.com",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewContext_StartsRestoring(t *testing.T) {
	c := NewContext(NewMemoryStore())
	assert.Equal(t, StateRestoring, c.State())
	assert.False(t, c.Ready())
	assert.Nil(t, c.Identity())
}

func TestRestore_EmptyStoreMeansAnonymous(t *testing.T) {
	c := NewContext(NewMemoryStore())

	require.NoError(t, c.Restore(context.Background()))
	assert.Equal(t, StateAnonymous, c.State())
	assert.True(t, c.Ready())
	assert.Nil(t, c.Identity())
}

func TestRestore_PersistedIdentity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := NewContext(store)
	require.NoError(t, first.Restore(ctx))
	require.NoError(t, first.Login(ctx, alice()))

	// a fresh context over the same store restores the identity
	second := NewContext(store)
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, StateAuthenticated, second.State())
	require.NotNil(t, second.Identity())
	assert.Equal(t, "alice", second.Identity().Username)
}

func TestRestore_CorruptEntryPurgedAndAnonymous(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, identityKey, []byte("{not json")))

	c := NewContext(store)
	require.NoError(t, c.Restore(ctx))
	assert.Equal(t, StateAnonymous, c.State())

	raw, err := store.Get(ctx, identityKey)
	require.NoError(t, err)
	assert.Nil(t, raw, "corrupt entry must be purged")
}

func TestLoginLogout(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := NewContext(store)
	require.NoError(t, c.Restore(ctx))

	require.NoError(t, c.Login(ctx, alice()))
	assert.Equal(t, StateAuthenticated, c.State())
	require.NotNil(t, c.Identity())

	raw, err := store.Get(ctx, identityKey)
	require.NoError(t, err)
	assert.NotNil(t, raw)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, StateAnonymous, c.State())
	assert.Nil(t, c.Identity())

	raw, err = store.Get(ctx, identityKey)
	require.NoError(t, err)
	assert.Nil(t, raw, "logout must purge the persisted identity")
}

func TestSubscribe(t *testing.T) {
	c := NewContext(NewMemoryStore())
	ctx := context.Background()

	var states []State
	unsubscribe := c.Subscribe(func(state State, _ *Identity) {
		states = append(states, state)
	})

	require.NoError(t, c.Restore(ctx))
	require.NoError(t, c.Login(ctx, alice()))
	unsubscribe()
	require.NoError(t, c.Logout(ctx))

	assert.Equal(t, []State{StateAnonymous, StateAuthenticated}, states)
}

func TestIdentityReturnsCopy(t *testing.T) {
	c := NewContext(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.Restore(ctx))
	require.NoError(t, c.Login(ctx, alice()))

	identity := c.Identity()
	identity.Username = "mallory"
	assert.Equal(t, "alice", c.Identity().Username)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "restoring", StateRestoring.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
