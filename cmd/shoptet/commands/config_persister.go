package commands

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// ConfigPersister keeps the API token in the CLI config file. It implements
// shoptet.TokenStore for processes that share one config file sequentially.
type ConfigPersister struct {
	mutex sync.Mutex
	path  string
}

// NewConfigPersister creates a persister for the config file at path.
func NewConfigPersister(path string) *ConfigPersister {
	return &ConfigPersister{path: path}
}

// WithLock implements shoptet.TokenStore.
func (p *ConfigPersister) WithLock(ctx context.Context, fn func(ctx context.Context, record shoptet.TokenRecord) error) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, fileRecord{path: p.path})
}

// Token reads the API token stored in the file.
func (p *ConfigPersister) Token(context.Context) (string, error) {
	config, err := readConfigFile(p.path)
	if err != nil {
		return "", err
	}

	return config.APIToken, nil
}

type fileRecord struct {
	path string
}

func (r fileRecord) Load(context.Context) (string, error) {
	config, err := readConfigFile(r.path)
	if err != nil {
		return "", err
	}

	return config.APIToken, nil
}

func (r fileRecord) Save(_ context.Context, token string) error {
	config, err := readConfigFile(r.path)
	if err != nil {
		return err
	}

	config.APIToken = token

	return writeConfigFile(r.path, config)
}

var _ shoptet.TokenStore = (*ConfigPersister)(nil)
