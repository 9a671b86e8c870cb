// Package tokenstore provides shoptet.TokenStore implementations for sharing
// one API token between clients.
//
// Memory serves clients within one process. The postgres, redis and natskv
// subpackages coordinate clients across processes.
package tokenstore

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// Memory is an in-process TokenStore guarded by a mutex.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory creates a Memory store holding token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

// Token returns the stored token.
func (m *Memory) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token
}

// WithLock implements shoptet.TokenStore.
func (m *Memory) WithLock(ctx context.Context, fn func(ctx context.Context, record shoptet.TokenRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, memoryRecord{m: m})
}

// memoryRecord reads and writes the token while the store mutex is held.
type memoryRecord struct {
	m *Memory
}

func (r memoryRecord) Load(context.Context) (string, error) {
	return r.m.token, nil
}

func (r memoryRecord) Save(_ context.Context, token string) error {
	r.m.token = token

	return nil
}

var _ shoptet.TokenStore = (*Memory)(nil)
