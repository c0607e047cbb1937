package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	t.Run("only the latest token is current", func(t *testing.T) {
		var g Guard
		_, first := g.Next(context.Background())
		_, second := g.Next(context.Background())

		assert.False(t, g.IsCurrent(first))
		assert.True(t, g.IsCurrent(second))
		assert.False(t, g.Settle(first))
		assert.True(t, g.Settle(second))
	})

	t.Run("the zero token is never current", func(t *testing.T) {
		var g Guard
		assert.False(t, g.IsCurrent(0))
	})

	t.Run("superseding cancels the previous context", func(t *testing.T) {
		var g Guard
		firstCtx, _ := g.Next(context.Background())
		secondCtx, _ := g.Next(context.Background())

		require.ErrorIs(t, firstCtx.Err(), context.Canceled)
		assert.NoError(t, secondCtx.Err())
	})

	t.Run("Changed fires on settle and on supersede", func(t *testing.T) {
		var g Guard
		g.Next(context.Background())
		ch := g.Changed()
		g.Next(context.Background())
		assertClosed(t, ch)

		_, tok := g.Next(context.Background())
		ch = g.Changed()
		g.Settle(tok)
		assertClosed(t, ch)
	})

	t.Run("Invalidate makes outstanding tokens stale", func(t *testing.T) {
		var g Guard
		ctx, tok := g.Next(context.Background())
		g.Invalidate()

		assert.False(t, g.IsCurrent(tok))
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusEmpty, ListStatus(0))
	assert.Equal(t, StatusReady, ListStatus(3))
	assert.False(t, StatusLoading.Settled())
	assert.True(t, StatusError.Settled())
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatal("expected channel to be closed")
	}
}
