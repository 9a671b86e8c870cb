package shoptet

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/internal/metrics"
)

// TokenHolder owns the API token a refresher replaces.
type TokenHolder interface {
	APIToken() string
	SetAPIToken(token string)
	NewAPIToken(ctx context.Context) (string, error)
}

// TokenRefresher installs a fresh API token on a holder after a token error.
type TokenRefresher interface {
	Refresh(ctx context.Context, holder TokenHolder) error
}

// RefresherFunc adapts a function to TokenRefresher.
type RefresherFunc func(ctx context.Context, holder TokenHolder) error

// Refresh calls f(ctx, holder).
func (f RefresherFunc) Refresh(ctx context.Context, holder TokenHolder) error {
	return f(ctx, holder)
}

// MintRefresher mints a new token and installs it, without coordination.
type MintRefresher struct{}

// Refresh implements TokenRefresher.
func (MintRefresher) Refresh(ctx context.Context, holder TokenHolder) error {
	token, err := holder.NewAPIToken(ctx)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("mint", metrics.OutcomeFailed).Inc()

		return fmt.Errorf("minting API token: %w", err)
	}

	holder.SetAPIToken(token)
	metrics.TokenRefreshesTotal.WithLabelValues("mint", metrics.OutcomeMinted).Inc()

	return nil
}

// TokenRecord is the persisted copy of a token, valid only inside WithLock.
type TokenRecord interface {
	// Load re-reads the authoritative token. An empty string means none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
}

// TokenStore persists a token shared between holders.
type TokenStore interface {
	// WithLock runs fn while holding an exclusive lock on the record. The lock
	// is released when fn returns.
	WithLock(ctx context.Context, fn func(ctx context.Context, record TokenRecord) error) error
}

// LockedRefresher coordinates refreshes through a TokenStore so that holders
// sharing one persisted token converge on one token. A holder that finds the
// stored token already replaced adopts it without minting.
type LockedRefresher struct {
	Store TokenStore
}

// NewLockedRefresher creates a LockedRefresher over store.
func NewLockedRefresher(store TokenStore) *LockedRefresher {
	return &LockedRefresher{Store: store}
}

// Refresh implements TokenRefresher.
func (r *LockedRefresher) Refresh(ctx context.Context, holder TokenHolder) error {
	failed := holder.APIToken()

	err := r.Store.WithLock(ctx, func(ctx context.Context, record TokenRecord) error {
		stored, err := record.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading stored token: %w", err)
		}

		if stored != "" && stored != failed {
			holder.SetAPIToken(stored)
			metrics.TokenRefreshesTotal.WithLabelValues("locked", metrics.OutcomeAdopted).Inc()

			return nil
		}

		token, err := holder.NewAPIToken(ctx)
		if err != nil {
			return fmt.Errorf("minting API token: %w", err)
		}

		holder.SetAPIToken(token)

		if err := record.Save(ctx, token); err != nil {
			return fmt.Errorf("saving API token: %w", err)
		}

		metrics.TokenRefreshesTotal.WithLabelValues("locked", metrics.OutcomeMinted).Inc()

		return nil
	})
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("locked", metrics.OutcomeFailed).Inc()

		return fmt.Errorf("refreshing API token: %w", err)
	}

	return nil
}
