package shoptetclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/shoptet-client/internal/client"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// New creates a Shoptet client from config. The config is copied; URLs are
// normalized on the copy and the refresher defaults to shoptet.MintRefresher.
func New(ctx context.Context, config *shoptet.Config) (shoptet.Client, error) {
	if config == nil {
		return nil, shoptet.ErrConfigRequired
	}

	if config.OAuthURL == "" {
		return nil, shoptet.ErrOAuthURLRequired
	}

	if config.OAuthToken == "" {
		return nil, shoptet.ErrOAuthTokenRequired
	}

	normalized := *config
	normalized.OAuthURL = normalizeURL(config.OAuthURL)
	normalized.APIURL = strings.TrimSuffix(normalizeURL(config.APIURL), "/")

	if config.ShopURL != "" {
		normalized.ShopURL = strings.TrimSuffix(normalizeURL(config.ShopURL), "/") + "/"
	}

	if normalized.TokenRefresher == nil {
		normalized.TokenRefresher = shoptet.MintRefresher{}
	}

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client that starts with an API token minted earlier.
func NewWithToken(ctx context.Context, oauthURL, oauthToken, apiToken string) (shoptet.Client, error) {
	return New(ctx, &shoptet.Config{
		OAuthURL:   oauthURL,
		OAuthToken: oauthToken,
		APIToken:   apiToken,
	})
}

// NewWithStore creates a client whose refreshes are coordinated through store.
// The initial API token is the one the caller last loaded from the store.
func NewWithStore(
	ctx context.Context,
	config *shoptet.Config,
	store shoptet.TokenStore,
) (shoptet.Client, error) {
	if config == nil {
		return nil, shoptet.ErrConfigRequired
	}

	withStore := *config
	withStore.TokenRefresher = shoptet.NewLockedRefresher(store)

	return New(ctx, &withStore)
}

// normalizeURL adds https:// when no scheme is present.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}

	return raw
}
