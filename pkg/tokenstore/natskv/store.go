// Package natskv stores the shared Shoptet API token in a NATS JetStream
// key-value bucket. The lock is a separate key created with Create, which
// fails while another holder owns it. The holder pushes the lease deadline
// forward every third of the lock TTL.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/internal/lockwatch"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is used when Config.Bucket is empty.
const DefaultBucket = "shoptet_tokens"

// Static errors for err113 compliance.
var (
	ErrShopKeyRequired = errors.New("shop key is required")
	ErrLockLost        = errors.New("token lock taken over before release")
)

// Config configures a Store.
type Config struct {
	// URL of the NATS server, nats.DefaultURL when empty.
	URL string

	// Bucket holding the token and lock keys.
	Bucket string

	// ShopKey separates tokens of different shops in one bucket.
	ShopKey string

	// LockTTL bounds how long a crashed holder keeps the lock. A live holder
	// renews it.
	LockTTL time.Duration

	// PollInterval is how often a held lock is re-tried.
	PollInterval time.Duration
}

// Store is a TokenStore backed by a JetStream KV bucket.
type Store struct {
	nc           *nats.Conn
	kv           jetstream.KeyValue
	shopKey      string
	lockTTL      time.Duration
	pollInterval time.Duration
}

// lease is the value of the lock key. A lease past its deadline may be taken over.
type lease struct {
	Owner    string    `json:"owner"`
	Deadline time.Time `json:"deadline"`
}

// New connects to NATS and opens (or creates) the bucket.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.ShopKey == "" {
		return nil, ErrShopKeyRequired
	}

	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	store, err := NewWithConn(ctx, nc, config)
	if err != nil {
		nc.Close()

		return nil, err
	}

	store.nc = nc

	return store, nil
}

// NewWithConn opens the bucket over an existing connection. Close leaves it open.
func NewWithConn(ctx context.Context, nc *nats.Conn, config Config) (*Store, error) {
	if config.ShopKey == "" {
		return nil, ErrShopKeyRequired
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Shoptet API tokens",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	store := &Store{
		kv:           kv,
		shopKey:      sanitizeKey(config.ShopKey),
		lockTTL:      config.LockTTL,
		pollInterval: config.PollInterval,
	}

	if store.lockTTL <= 0 {
		store.lockTTL = constants.LockTTL
	}

	if store.pollInterval <= 0 {
		store.pollInterval = constants.LockPollInterval
	}

	return store, nil
}

// Close closes the connection if the Store created it.
func (s *Store) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

func (s *Store) tokenKey() string { return "token." + s.shopKey }
func (s *Store) lockKey() string  { return "lock." + s.shopKey }

// WithLock implements shoptet.TokenStore. The ctx passed to fn is cancelled
// with ErrLockLost if the lease is found taken over while fn runs.
func (s *Store) WithLock(ctx context.Context, fn func(ctx context.Context, record shoptet.TokenRecord) error) error {
	owner := uuid.NewString()

	acquired, err := s.acquire(ctx, owner)
	if err != nil {
		return err
	}

	var revision atomic.Uint64

	revision.Store(acquired)

	workCtx, stop := lockwatch.Start(ctx, s.lockTTL/3, func(ctx context.Context) (bool, error) {
		return s.renew(ctx, owner, &revision)
	}, ErrLockLost)

	fnErr := fn(workCtx, record{store: s})

	stop()

	if lockwatch.Lost(workCtx, ErrLockLost) {
		return errors.Join(ErrLockLost, fnErr)
	}

	if err := s.release(context.WithoutCancel(ctx), revision.Load()); err != nil {
		return errors.Join(fnErr, err)
	}

	return fnErr
}

// renew moves the lease deadline forward. It reports false once another
// holder has replaced the lease.
func (s *Store) renew(ctx context.Context, owner string, revision *atomic.Uint64) (bool, error) {
	value, err := json.Marshal(lease{Owner: owner, Deadline: time.Now().Add(s.lockTTL)})
	if err != nil {
		return false, fmt.Errorf("encoding token lock: %w", err)
	}

	next, err := s.kv.Update(ctx, s.lockKey(), value, revision.Load())
	if err == nil {
		revision.Store(next)

		return true, nil
	}

	if isWrongRevision(err) {
		return false, nil
	}

	return false, fmt.Errorf("renewing token lock: %w", err)
}

func (s *Store) acquire(ctx context.Context, owner string) (uint64, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		value, err := json.Marshal(lease{Owner: owner, Deadline: time.Now().Add(s.lockTTL)})
		if err != nil {
			return 0, fmt.Errorf("encoding token lock: %w", err)
		}

		revision, err := s.kv.Create(ctx, s.lockKey(), value)
		if err == nil {
			return revision, nil
		}

		if !errors.Is(err, jetstream.ErrKeyExists) {
			return 0, fmt.Errorf("acquiring token lock: %w", err)
		}

		revision, taken, err := s.takeOverExpired(ctx, value)
		if err != nil {
			return 0, err
		}

		if taken {
			return revision, nil
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("acquiring token lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// takeOverExpired replaces a lease whose deadline passed. Update fails if
// another waiter got there first.
func (s *Store) takeOverExpired(ctx context.Context, value []byte) (uint64, bool, error) {
	entry, err := s.kv.Get(ctx, s.lockKey())
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("reading token lock: %w", err)
	}

	var held lease
	if err := json.Unmarshal(entry.Value(), &held); err != nil || time.Now().Before(held.Deadline) {
		return 0, false, nil //nolint:nilerr // An unreadable lease is treated as held.
	}

	revision, err := s.kv.Update(ctx, s.lockKey(), value, entry.Revision())
	if err != nil {
		return 0, false, nil //nolint:nilerr // Lost the race for the expired lease.
	}

	return revision, true, nil
}

func (s *Store) release(ctx context.Context, revision uint64) error {
	err := s.kv.Delete(ctx, s.lockKey(), jetstream.LastRevision(revision))
	if err == nil {
		return nil
	}

	if isWrongRevision(err) {
		return ErrLockLost
	}

	return fmt.Errorf("releasing token lock: %w", err)
}

// isWrongRevision reports whether a revision-checked write lost to another writer.
func isWrongRevision(err error) bool {
	var apiErr *jetstream.APIError

	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// Token reads the stored token without locking.
func (s *Store) Token(ctx context.Context) (string, error) {
	return record{store: s}.Load(ctx)
}

type record struct {
	store *Store
}

func (r record) Load(ctx context.Context) (string, error) {
	entry, err := r.store.kv.Get(ctx, r.store.tokenKey())
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(entry.Value()), nil
}

func (r record) Save(ctx context.Context, token string) error {
	if _, err := r.store.kv.PutString(ctx, r.store.tokenKey(), token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	return nil
}

// sanitizeKey maps characters NATS does not allow in keys to underscores.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '=':
			return r
		default:
			return '_'
		}
	}, key)
}

var _ shoptet.TokenStore = (*Store)(nil)
