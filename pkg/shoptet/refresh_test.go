package shoptet_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMintFailed = errors.New("mint failed")

// fakeHolder is a TokenHolder whose minter counts calls.
type fakeHolder struct {
	mu     sync.RWMutex
	token  string
	mints  *atomic.Int32
	failed bool
}

func (h *fakeHolder) APIToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.token
}

func (h *fakeHolder) SetAPIToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.token = token
}

func (h *fakeHolder) NewAPIToken(_ context.Context) (string, error) {
	if h.failed {
		return "", errMintFailed
	}

	n := h.mints.Add(1)

	return fmt.Sprintf("token-%d", n), nil
}

func TestMintRefresher(t *testing.T) {
	t.Parallel()

	holder := &fakeHolder{token: "old", mints: &atomic.Int32{}}

	require.NoError(t, shoptet.MintRefresher{}.Refresh(context.Background(), holder))
	assert.Equal(t, "token-1", holder.APIToken())

	holder.failed = true
	err := shoptet.MintRefresher{}.Refresh(context.Background(), holder)
	require.ErrorIs(t, err, errMintFailed)
	assert.Equal(t, "token-1", holder.APIToken())
}

func TestRefresherFunc(t *testing.T) {
	t.Parallel()

	var called bool

	refresher := shoptet.RefresherFunc(func(_ context.Context, holder shoptet.TokenHolder) error {
		called = true
		holder.SetAPIToken("from-func")

		return nil
	})

	holder := &fakeHolder{mints: &atomic.Int32{}}
	require.NoError(t, refresher.Refresh(context.Background(), holder))
	assert.True(t, called)
	assert.Equal(t, "from-func", holder.APIToken())
}

func TestLockedRefresher_AdoptsStoredToken(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("fresh")
	holder := &fakeHolder{token: "stale", mints: &atomic.Int32{}}

	require.NoError(t, shoptet.NewLockedRefresher(store).Refresh(context.Background(), holder))

	assert.Equal(t, "fresh", holder.APIToken())
	assert.Equal(t, int32(0), holder.mints.Load())
}

func TestLockedRefresher_MintsWhenStoredTokenFailed(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("stale")
	holder := &fakeHolder{token: "stale", mints: &atomic.Int32{}}

	require.NoError(t, shoptet.NewLockedRefresher(store).Refresh(context.Background(), holder))

	assert.Equal(t, "token-1", holder.APIToken())
	assert.Equal(t, "token-1", store.Token())
}

func TestLockedRefresher_MintsWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("")
	holder := &fakeHolder{token: "stale", mints: &atomic.Int32{}}

	require.NoError(t, shoptet.NewLockedRefresher(store).Refresh(context.Background(), holder))

	assert.Equal(t, "token-1", store.Token())
}

func TestLockedRefresher_MintFailureKeepsStore(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory("stale")
	holder := &fakeHolder{token: "stale", mints: &atomic.Int32{}, failed: true}

	err := shoptet.NewLockedRefresher(store).Refresh(context.Background(), holder)
	require.ErrorIs(t, err, errMintFailed)

	assert.Equal(t, "stale", store.Token())
	assert.Equal(t, "stale", holder.APIToken())
}

func TestLockedRefresher_ConcurrentHoldersMintOnce(t *testing.T) {
	t.Parallel()

	const holders = 8

	store := tokenstore.NewMemory("stale")
	refresher := shoptet.NewLockedRefresher(store)
	mints := &atomic.Int32{}

	all := make([]*fakeHolder, holders)
	for i := range all {
		all[i] = &fakeHolder{token: "stale", mints: mints}
	}

	var wg sync.WaitGroup

	for _, h := range all {
		wg.Add(1)

		go func(h *fakeHolder) {
			defer wg.Done()

			assert.NoError(t, refresher.Refresh(context.Background(), h))
		}(h)
	}

	wg.Wait()

	assert.Equal(t, int32(1), mints.Load())

	for _, h := range all {
		assert.Equal(t, store.Token(), h.APIToken())
	}
}
