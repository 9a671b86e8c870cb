// Package redis stores the shared Shoptet API token in Redis. WithLock takes a
// SET NX lock owned by a random id and polls until it is free. The holder
// extends the lock every third of its TTL until it releases it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/internal/lockwatch"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Static errors for err113 compliance.
var (
	ErrShopKeyRequired = errors.New("shop key is required")
	ErrLockLost        = errors.New("token lock expired before release")
)

// releaseScript deletes the lock only if it is still ours.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only if it is still ours.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Store is a TokenStore backed by two Redis keys per shop.
type Store struct {
	rdb          redis.UniversalClient
	shopKey      string
	lockTTL      time.Duration
	pollInterval time.Duration
	owned        bool
}

// Option configures a Store.
type Option func(*Store)

// WithLockTTL bounds how long a crashed holder keeps the lock. A live holder
// renews it.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithPollInterval sets how often a held lock is re-tried.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Store) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// New parses rawURL (redis://...) and returns a Store for shopKey.
func New(ctx context.Context, rawURL, shopKey string, opts ...Option) (*Store, error) {
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(redisOpts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store, err := NewWithClient(rdb, shopKey, opts...)
	if err != nil {
		_ = rdb.Close()

		return nil, err
	}

	store.owned = true

	return store, nil
}

// NewWithClient returns a Store using an existing client. Close leaves it open.
func NewWithClient(rdb redis.UniversalClient, shopKey string, opts ...Option) (*Store, error) {
	if shopKey == "" {
		return nil, ErrShopKeyRequired
	}

	store := &Store{
		rdb:          rdb,
		shopKey:      shopKey,
		lockTTL:      constants.LockTTL,
		pollInterval: constants.LockPollInterval,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Close closes the client if the Store created it.
func (s *Store) Close() error {
	if s.owned {
		return s.rdb.Close()
	}

	return nil
}

func (s *Store) tokenKey() string {
	return fmt.Sprintf("shoptet:token:%s", s.shopKey)
}

func (s *Store) lockKey() string {
	return fmt.Sprintf("shoptet:token-lock:%s", s.shopKey)
}

// WithLock implements shoptet.TokenStore. The ctx passed to fn is cancelled
// with ErrLockLost if the lock is found taken over while fn runs.
func (s *Store) WithLock(ctx context.Context, fn func(ctx context.Context, record shoptet.TokenRecord) error) error {
	owner := uuid.NewString()

	if err := s.acquire(ctx, owner); err != nil {
		return err
	}

	workCtx, stop := lockwatch.Start(ctx, s.lockTTL/3, func(ctx context.Context) (bool, error) {
		renewed, err := renewScript.Run(ctx, s.rdb, []string{s.lockKey()}, owner, s.lockTTL.Milliseconds()).Int()

		return renewed == 1, err
	}, ErrLockLost)

	fnErr := fn(workCtx, record{store: s})

	stop()

	// Release even when ctx is done so the lock does not linger until the TTL.
	released, err := releaseScript.Run(context.WithoutCancel(ctx), s.rdb, []string{s.lockKey()}, owner).Int()
	if err != nil {
		return errors.Join(fnErr, fmt.Errorf("releasing token lock: %w", err))
	}

	if lockwatch.Lost(workCtx, ErrLockLost) {
		return errors.Join(ErrLockLost, fnErr)
	}

	if released == 0 && fnErr == nil {
		return ErrLockLost
	}

	return fnErr
}

func (s *Store) acquire(ctx context.Context, owner string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.rdb.SetNX(ctx, s.lockKey(), owner, s.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquiring token lock: %w", err)
		}

		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("acquiring token lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Token reads the stored token without locking.
func (s *Store) Token(ctx context.Context) (string, error) {
	return record{store: s}.Load(ctx)
}

type record struct {
	store *Store
}

func (r record) Load(ctx context.Context) (string, error) {
	token, err := r.store.rdb.Get(ctx, r.store.tokenKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return token, nil
}

func (r record) Save(ctx context.Context, token string) error {
	if err := r.store.rdb.Set(ctx, r.store.tokenKey(), token, 0).Err(); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	return nil
}

var _ shoptet.TokenStore = (*Store)(nil)
