package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	t.Helper()
	store := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		ok, err := store.Claim(ctx, "POST /invoices|abc", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "POST /invoices|abc", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		store, _ := newTestStore(t)

		ok, _ := store.Claim(ctx, "a", time.Hour)
		assert.True(t, ok)
		ok, _ = store.Claim(ctx, "b", time.Hour)
		assert.True(t, ok)
		assert.Equal(t, 2, store.Size())
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		store, now := newTestStore(t)

		ok, _ := store.Claim(ctx, "a", time.Minute)
		require.True(t, ok)

		*now = now.Add(time.Minute)
		ok, err := store.Claim(ctx, "a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("released key can be claimed again", func(t *testing.T) {
		store, _ := newTestStore(t)

		ok, _ := store.Claim(ctx, "a", time.Hour)
		require.True(t, ok)
		require.NoError(t, store.Release(ctx, "a"))

		ok, _ = store.Claim(ctx, "a", time.Hour)
		assert.True(t, ok)
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		store, _ := newTestStore(t)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := store.Claim(ctx, "race", time.Hour); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Claim(ctx, "short", time.Minute)
	_, _ = store.Claim(ctx, "long", time.Hour)

	*now = now.Add(2 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	ok, _ := store.Claim(ctx, "long", time.Hour)
	assert.False(t, ok)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
