package postgres_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("SHOPTET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SHOPTET_TEST_POSTGRES_DSN not set")
	}

	store, err := postgres.New(context.Background(), dsn, "test-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchema(context.Background()))

	return store
}

func TestNew_RequiresShopKey(t *testing.T) {
	t.Parallel()

	_, err := postgres.New(context.Background(), "postgres://localhost/db", "")
	require.ErrorIs(t, err, postgres.ErrShopKeyRequired)
}

func TestStore_LoadSave(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	err := store.WithLock(ctx, func(ctx context.Context, record shoptet.TokenRecord) error {
		token, err := record.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, token)

		return record.Save(ctx, "saved")
	})
	require.NoError(t, err)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "saved", token)
}

func TestStore_RollbackOnError(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	err := store.WithLock(ctx, func(ctx context.Context, record shoptet.TokenRecord) error {
		require.NoError(t, record.Save(ctx, "discarded"))

		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_Exclusive(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := store.WithLock(context.Background(), func(context.Context, shoptet.TokenRecord) error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				defer inside.Add(-1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.False(t, overlap.Load())
}
