package shoptetclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	shoptethttp "github.com/fivetwenty-io/shoptet-client/internal/http"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// CodeExchange holds the inputs of an authorization-code exchange.
type CodeExchange struct {
	// URL is the OAuth token endpoint.
	URL          string
	RedirectURL  string
	ClientID     string
	ClientSecret string
	Code         string
}

// InstallResponse is returned when an addon is installed in a shop.
type InstallResponse struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	TokenType    string `json:"token_type"   yaml:"token_type"`
	Scope        string `json:"scope"        yaml:"scope"`
	EshopID      int    `json:"eshopId"      yaml:"eshopId"`
	EshopURL     string `json:"eshopUrl"     yaml:"eshopUrl"`
	ContactEmail string `json:"contactEmail" yaml:"contactEmail"`
}

// LoginTokenResponse is returned for a customer login code.
type LoginTokenResponse struct {
	AccessToken string `json:"access_token" yaml:"access_token"`
	TokenType   string `json:"token_type"   yaml:"token_type"`
	ExpiresIn   int    `json:"expires_in"   yaml:"expires_in"`
	Scope       string `json:"scope"        yaml:"scope"`
}

// Option configures the transport of the one-shot helpers.
type Option func(*[]shoptethttp.Option)

// WithLogger logs requests of the helpers at debug level.
func WithLogger(logger shoptet.Logger) Option {
	return func(opts *[]shoptethttp.Option) {
		*opts = append(*opts, shoptethttp.WithLogger(logger), shoptethttp.WithDebug(true))
	}
}

// WithTimeout overrides the transport timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *[]shoptethttp.Option) {
		*opts = append(*opts, shoptethttp.WithTimeout(timeout))
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *[]shoptethttp.Option) {
		*opts = append(*opts, shoptethttp.WithHTTPClient(httpClient))
	}
}

func newTransport(opts []Option) *shoptethttp.Client {
	var transportOpts []shoptethttp.Option
	for _, opt := range opts {
		opt(&transportOpts)
	}

	return shoptethttp.NewClient(transportOpts...)
}

// Install exchanges the code a shop sends on addon installation for the
// permanent OAuth token.
func Install(ctx context.Context, exchange CodeExchange, opts ...Option) (*InstallResponse, error) {
	body, err := postCode(ctx, exchange, constants.ScopeAPI, opts)
	if err != nil {
		return nil, fmt.Errorf("installing addon: %w", err)
	}

	resp, err := shoptet.Decode[InstallResponse](body)
	if err != nil {
		return nil, fmt.Errorf("installing addon: %w", err)
	}

	if resp.AccessToken == "" {
		return nil, shoptet.ErrMissingAccessToken
	}

	return &resp, nil
}

// LoginToken exchanges a customer login code for an access token.
func LoginToken(ctx context.Context, exchange CodeExchange, opts ...Option) (*LoginTokenResponse, error) {
	body, err := postCode(ctx, exchange, constants.ScopeBasicEshop, opts)
	if err != nil {
		return nil, fmt.Errorf("requesting login token: %w", err)
	}

	resp, err := shoptet.Decode[LoginTokenResponse](body)
	if err != nil {
		return nil, fmt.Errorf("requesting login token: %w", err)
	}

	if resp.AccessToken == "" {
		return nil, shoptet.ErrMissingAccessToken
	}

	return &resp, nil
}

// BasicEshop fetches the basic shop information available to a customer
// login token.
func BasicEshop(ctx context.Context, rawURL, accessToken string, opts ...Option) (json.RawMessage, error) {
	body, err := newTransport(opts).Get(ctx, rawURL, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting basic eshop: %w", err)
	}

	if err := shoptet.CheckResponse(body); err != nil {
		return nil, fmt.Errorf("requesting basic eshop: %w", err)
	}

	return body, nil
}

func postCode(ctx context.Context, exchange CodeExchange, scope string, opts []Option) (json.RawMessage, error) {
	form := url.Values{
		"redirect_uri":  []string{exchange.RedirectURL},
		"client_id":     []string{exchange.ClientID},
		"client_secret": []string{exchange.ClientSecret},
		"code":          []string{exchange.Code},
		"grant_type":    []string{constants.GrantAuthorizationCode},
		"scope":         []string{scope},
	}

	body, err := newTransport(opts).PostForm(ctx, exchange.URL, form)
	if err != nil {
		return nil, err
	}

	if err := shoptet.CheckResponse(body); err != nil {
		return nil, err
	}

	return body, nil
}
