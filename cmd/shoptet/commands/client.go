package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/logger"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptetclient"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore/natskv"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore/postgres"
	"github.com/fivetwenty-io/shoptet-client/pkg/tokenstore/redis"
	"github.com/spf13/viper"
)

// sharedStore is a TokenStore the CLI can also read outside the lock.
type sharedStore interface {
	shoptet.TokenStore
	Token(ctx context.Context) (string, error)
}

// session bundles a client with the token store it refreshes through.
type session struct {
	client shoptet.Client
	store  sharedStore
	close  func()
}

func (s *session) Close() {
	if s.close != nil {
		s.close()
	}
}

// newLogger builds the CLI logger. Verbose output forces debug level.
func newLogger(errOut io.Writer, config *Config) shoptet.Logger {
	level := config.LogLevel
	if viper.GetBool("verbose") {
		level = "debug"
	}

	if level == "" {
		return nil
	}

	return logger.NewAdapter(logger.NewWithWriter(errOut, level, config.LogFormat))
}

// openSession creates a client from the effective configuration. The initial
// API token comes from the token store when one is configured.
func openSession(ctx context.Context, errOut io.Writer) (*session, error) {
	config := loadConfig()

	if config.OAuthURL == "" || config.OAuthToken == "" {
		return nil, constants.ErrNotConfigured
	}

	store, closeStore, err := openTokenStore(ctx, config)
	if err != nil {
		return nil, err
	}

	apiToken := config.APIToken

	if store != nil {
		stored, err := store.Token(ctx)
		if err != nil {
			closeStore()

			return nil, fmt.Errorf("reading stored token: %w", err)
		}

		if stored != "" {
			apiToken = stored
		}
	}

	log := newLogger(errOut, config)

	clientConfig := &shoptet.Config{
		OAuthURL:   config.OAuthURL,
		OAuthToken: config.OAuthToken,
		ShopURL:    config.ShopURL,
		ClientID:   config.ClientID,
		APIToken:   apiToken,
		APIURL:     config.APIURL,
		RateLimit:  config.RateLimit,
		Logger:     log,
		Debug:      viper.GetBool("verbose"),
	}

	var client shoptet.Client
	if store != nil {
		client, err = shoptetclient.NewWithStore(ctx, clientConfig, store)
	} else {
		client, err = shoptetclient.New(ctx, clientConfig)
	}

	if err != nil {
		closeStore()

		return nil, err
	}

	return &session{client: client, store: store, close: closeStore}, nil
}

// openTokenStore returns nil for the "none" type.
func openTokenStore(ctx context.Context, config *Config) (sharedStore, func(), error) {
	noop := func() {}
	shopKey := config.TokenStore.ShopKey

	if shopKey == "" {
		shopKey = config.ShopURL
	}

	if shopKey == "" {
		shopKey = config.OAuthURL
	}

	switch config.TokenStore.Type {
	case "", StoreFile:
		path, err := configFilePath()
		if err != nil {
			return nil, noop, err
		}

		return NewConfigPersister(path), noop, nil

	case StoreNone:
		return nil, noop, nil

	case StorePostgres:
		if config.TokenStore.URL == "" {
			return nil, noop, constants.ErrTokenStoreURL
		}

		store, err := postgres.New(ctx, config.TokenStore.URL, shopKey)
		if err != nil {
			return nil, noop, fmt.Errorf("opening postgres token store: %w", err)
		}

		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()

			return nil, noop, err
		}

		return store, store.Close, nil

	case StoreRedis:
		if config.TokenStore.URL == "" {
			return nil, noop, constants.ErrTokenStoreURL
		}

		store, err := redis.New(ctx, config.TokenStore.URL, shopKey)
		if err != nil {
			return nil, noop, fmt.Errorf("opening redis token store: %w", err)
		}

		return store, func() { _ = store.Close() }, nil

	case StoreNATS:
		store, err := natskv.New(ctx, natskv.Config{
			URL:     config.TokenStore.URL,
			Bucket:  config.TokenStore.Bucket,
			ShopKey: shopKey,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("opening NATS token store: %w", err)
		}

		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("%w: %s", constants.ErrUnknownTokenStore, config.TokenStore.Type)
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, arg)
	}

	return id, nil
}
