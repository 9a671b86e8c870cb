package tokenstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_LoadSave(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("first")

	err := store.WithLock(context.Background(), func(ctx context.Context, record shoptet.TokenRecord) error {
		token, err := record.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "first", token)

		return record.Save(ctx, "second")
	})
	require.NoError(t, err)

	assert.Equal(t, "second", store.Token())
}

func TestMemory_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tokenstore.NewMemory("x").WithLock(ctx, func(context.Context, shoptet.TokenRecord) error {
		called = true

		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemory_Exclusive(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("")

	var (
		wg     sync.WaitGroup
		inside int
		maxIn  int
		mu     sync.Mutex
	)

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = store.WithLock(context.Background(), func(context.Context, shoptet.TokenRecord) error {
				mu.Lock()
				inside++
				maxIn = max(maxIn, inside)
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()

				return nil
			})
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, maxIn)
}
