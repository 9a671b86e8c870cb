package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/internal/http"
	"github.com/fivetwenty-io/shoptet-client/internal/metrics"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// Client implements the shoptet.Client interface.
type Client struct {
	httpClient *http.Client
	config     shoptet.Config
	apiURL     string
	refresher  shoptet.TokenRefresher
	logger     shoptet.Logger

	tokenMu  sync.RWMutex
	apiToken string

	endpointsMu       sync.Mutex
	approvedEndpoints map[string]struct{}
}

// New creates a new Shoptet API client. The config is copied.
func New(_ context.Context, config *shoptet.Config) (*Client, error) {
	if config == nil {
		return nil, shoptet.ErrConfigRequired
	}

	if config.OAuthURL == "" {
		return nil, shoptet.ErrOAuthURLRequired
	}

	if config.OAuthToken == "" {
		return nil, shoptet.ErrOAuthTokenRequired
	}

	apiURL := strings.TrimSuffix(config.APIURL, "/")
	if apiURL == "" {
		apiURL = constants.DefaultAPIURL
	}

	refresher := config.TokenRefresher
	if refresher == nil {
		refresher = shoptet.MintRefresher{}
	}

	opts := []http.Option{
		http.WithTimeout(config.HTTPTimeout),
		http.WithUserAgent(config.UserAgent),
		http.WithRateLimit(config.RateLimit, config.RateBurst),
	}

	if config.Logger != nil {
		opts = append(opts, http.WithLogger(config.Logger), http.WithDebug(config.Debug))
	}

	return &Client{
		httpClient: http.NewClient(opts...),
		config:     *config,
		apiURL:     apiURL,
		refresher:  refresher,
		logger:     config.Logger,
		apiToken:   config.APIToken,
	}, nil
}

// APIToken returns the current API access token.
func (c *Client) APIToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()

	return c.apiToken
}

// SetAPIToken replaces the API access token used by later requests.
func (c *Client) SetAPIToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	c.apiToken = token
}

// NewAPIToken mints a new API access token from the OAuth endpoint. It does
// not install it.
func (c *Client) NewAPIToken(ctx context.Context) (string, error) {
	body, err := c.httpClient.Get(ctx, c.config.OAuthURL, map[string]string{
		"Authorization": "Bearer " + c.config.OAuthToken,
	})
	if err != nil {
		return "", fmt.Errorf("requesting API token: %w", err)
	}

	if err := shoptet.CheckResponse(body); err != nil {
		return "", fmt.Errorf("requesting API token: %w", err)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}

	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decoding API token: %w", err)
	}

	if token.AccessToken == "" {
		return "", shoptet.ErrMissingAccessToken
	}

	return token.AccessToken, nil
}

// Request sends an authenticated GET to rawURL merged with query. A token
// error is answered by refreshing the token and sending the request once more.
func (c *Client) Request(ctx context.Context, rawURL string, query url.Values) (json.RawMessage, error) {
	target, err := AssembleURL(rawURL, query)
	if err != nil {
		return nil, err
	}

	return c.request(ctx, target, true)
}

func (c *Client) request(ctx context.Context, target string, retryOnTokenError bool) (json.RawMessage, error) {
	body, err := c.httpClient.Get(ctx, target, map[string]string{
		constants.AccessTokenHeader: c.APIToken(),
		"Content-Type":              constants.VendorContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}

	tokenErrors, err := shoptet.ClassifyResponse(body)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}

	if len(tokenErrors) == 0 {
		return body, nil
	}

	if !retryOnTokenError {
		return nil, fmt.Errorf("requesting %s: %w", target, shoptet.NewResponseError(body))
	}

	c.logDebug("refreshing API token", map[string]interface{}{
		"url":   target,
		"error": tokenErrors[0].Code,
	})
	metrics.TokenErrorRetriesTotal.Inc()

	if err := c.refresher.Refresh(ctx, c); err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}

	return c.request(ctx, target, false)
}

// Enumerate lists the paginated resource at baseURL.
func (c *Client) Enumerate(
	ctx context.Context,
	baseURL string,
	query url.Values,
	dataKey string,
) (*shoptet.Enumerator[json.RawMessage], error) {
	return shoptet.NewEnumerator[json.RawMessage](ctx, c, baseURL, query, dataKey)
}

// AuthorizeURL builds the customer login URL of the shop.
func (c *Client) AuthorizeURL(redirectURL, state string) (string, error) {
	if c.config.ShopURL == "" {
		return "", shoptet.ErrShopURLRequired
	}

	if c.config.ClientID == "" {
		return "", shoptet.ErrClientIDRequired
	}

	shopURL := c.config.ShopURL
	if !strings.HasSuffix(shopURL, "/") {
		shopURL += "/"
	}

	query := url.Values{
		"client_id":     []string{c.config.ClientID},
		"state":         []string{state},
		"scope":         []string{constants.ScopeBasicEshop},
		"response_type": []string{"code"},
		"redirect_uri":  []string{redirectURL},
	}

	return shopURL + constants.AuthorizePath + "?" + query.Encode(), nil
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

var _ shoptet.Client = (*Client)(nil)
