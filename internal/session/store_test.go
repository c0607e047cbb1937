package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldfolio/internal/identity"
)

func TestInMemorySnapshotStore(t *testing.T) {
	store := NewInMemorySnapshotStore()
	ctx := context.Background()

	snap, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, store.Save(ctx, "c1", identity.Session{UID: "1", Email: "a@b.com"}))
	snap, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, &identity.Session{UID: "1", Email: "a@b.com"}, snap)

	require.NoError(t, store.Delete(ctx, "c1"))
	snap, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, snap)
}
