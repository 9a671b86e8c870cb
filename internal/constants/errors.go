package constants

import "errors"

// Configuration errors.
var (
	ErrNotConfigured     = errors.New("shop is not configured, set oauth_url and oauth_token with 'shoptet config set'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnknownTokenStore = errors.New("unknown token store, expected file, postgres, redis, nats or none")
	ErrTokenStoreURL     = errors.New("token store requires a connection URL (token_store.url)")
)
