// Package postgres stores the shared Shoptet API token in a PostgreSQL row.
// WithLock holds the row lock (SELECT ... FOR UPDATE) for the whole callback,
// so clients in different processes refresh one after another.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPoolSize = 4

// Static errors for err113 compliance.
var (
	ErrShopKeyRequired = errors.New("shop key is required")
)

const schema = `
CREATE TABLE IF NOT EXISTS shoptet_tokens (
	shop_key   TEXT PRIMARY KEY,
	api_token  TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a TokenStore backed by the shoptet_tokens table.
type Store struct {
	pool    *pgxpool.Pool
	shopKey string
	owned   bool
}

// New connects to connString and returns a Store for shopKey.
func New(ctx context.Context, connString, shopKey string) (*Store, error) {
	if shopKey == "" {
		return nil, ErrShopKeyRequired
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{pool: pool, shopKey: shopKey, owned: true}, nil
}

// NewWithPool returns a Store using an existing pool. Close leaves the pool open.
func NewWithPool(pool *pgxpool.Pool, shopKey string) (*Store, error) {
	if shopKey == "" {
		return nil, ErrShopKeyRequired
	}

	return &Store{pool: pool, shopKey: shopKey}, nil
}

// Close releases the pool if the Store created it.
func (s *Store) Close() {
	if s.owned {
		s.pool.Close()
	}
}

// EnsureSchema creates the token table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating shoptet_tokens: %w", err)
	}

	return nil
}

// WithLock implements shoptet.TokenStore. The transaction is committed when fn
// succeeds and rolled back otherwise.
func (s *Store) WithLock(ctx context.Context, fn func(ctx context.Context, record shoptet.TokenRecord) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO shoptet_tokens (shop_key) VALUES (@shop_key) ON CONFLICT (shop_key) DO NOTHING`,
		pgx.NamedArgs{"shop_key": s.shopKey})
	if err != nil {
		return fmt.Errorf("ensuring token row: %w", err)
	}

	var locked string

	err = tx.QueryRow(ctx,
		`SELECT api_token FROM shoptet_tokens WHERE shop_key = @shop_key FOR UPDATE`,
		pgx.NamedArgs{"shop_key": s.shopKey}).Scan(&locked)
	if err != nil {
		return fmt.Errorf("locking token row: %w", err)
	}

	if err := fn(ctx, &txRecord{tx: tx, shopKey: s.shopKey}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing token: %w", err)
	}

	return nil
}

// Token reads the stored token without locking.
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string

	err := s.pool.QueryRow(ctx,
		`SELECT api_token FROM shoptet_tokens WHERE shop_key = @shop_key`,
		pgx.NamedArgs{"shop_key": s.shopKey}).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return token, nil
}

// txRecord reads and writes the locked row inside the transaction.
type txRecord struct {
	tx      pgx.Tx
	shopKey string
}

func (r *txRecord) Load(ctx context.Context) (string, error) {
	var token string

	err := r.tx.QueryRow(ctx,
		`SELECT api_token FROM shoptet_tokens WHERE shop_key = @shop_key`,
		pgx.NamedArgs{"shop_key": r.shopKey}).Scan(&token)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return token, nil
}

func (r *txRecord) Save(ctx context.Context, token string) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE shoptet_tokens SET api_token = @api_token, updated_at = now() WHERE shop_key = @shop_key`,
		pgx.NamedArgs{"api_token": token, "shop_key": r.shopKey})
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	return nil
}

var _ shoptet.TokenStore = (*Store)(nil)
