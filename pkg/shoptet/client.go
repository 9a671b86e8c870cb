package shoptet

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Requester issues one authenticated GET against the API and returns the
// classified body. Enumerators fetch every page through it.
type Requester interface {
	Request(ctx context.Context, rawURL string, query url.Values) (json.RawMessage, error)
}

// ShopClient provides access to shop-wide information.
type ShopClient interface {
	ShopInfo(ctx context.Context, params *QueryParams) (json.RawMessage, error)
	DesignInfo(ctx context.Context, params *QueryParams) (json.RawMessage, error)
	IsSuspended(ctx context.Context) (bool, error)
	Endpoints(ctx context.Context, params *QueryParams) (*Enumerator[Endpoint], error)
	EndpointApproved(ctx context.Context, endpoint string) (bool, error)
}

// CatalogClient provides access to products, categories and price lists.
type CatalogClient interface {
	Products(ctx context.Context, params *QueryParams) (*Enumerator[Product], error)
	Product(ctx context.Context, guid string, params *QueryParams) (json.RawMessage, error)
	ProductChanges(ctx context.Context, params *QueryParams) (*Enumerator[Change], error)
	ProductCategories(ctx context.Context, params *QueryParams) (*Enumerator[Category], error)
	PriceLists(ctx context.Context, params *QueryParams) (*Enumerator[PriceList], error)
	Prices(ctx context.Context, priceListID int, params *QueryParams) (*Enumerator[json.RawMessage], error)
}

// StockClient provides access to warehouses and their movements.
type StockClient interface {
	Stocks(ctx context.Context, params *QueryParams) (*Enumerator[Stock], error)
	Supplies(ctx context.Context, warehouseID int, params *QueryParams) (*Enumerator[Supply], error)
	StockMovements(ctx context.Context, warehouseID int, params *QueryParams) (*Enumerator[StockMovement], error)
}

// OrderClient provides access to orders.
type OrderClient interface {
	Orders(ctx context.Context, params *QueryParams) (*Enumerator[Order], error)
	Order(ctx context.Context, code string, params *QueryParams) (json.RawMessage, error)
	OrderChanges(ctx context.Context, params *QueryParams) (*Enumerator[Change], error)
}

// Client is a Shoptet API client bound to one shop.
type Client interface {
	Requester
	TokenHolder
	ShopClient
	CatalogClient
	StockClient
	OrderClient

	// Enumerate lists any paginated resource. An empty dataKey selects the
	// last path segment of baseURL.
	Enumerate(ctx context.Context, baseURL string, query url.Values, dataKey string) (*Enumerator[json.RawMessage], error)

	// AuthorizeURL builds the customer login URL of the shop.
	AuthorizeURL(redirectURL, state string) (string, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a shoptet.Client.
//
// # Tokens
//
// The API token is minted by calling OAuthURL with OAuthToken as a bearer
// credential. APIToken may carry a token minted earlier; if it is empty the
// first request fails with a token error and a fresh one is minted.
//
// # Refreshing
//
// When a request fails with a token error, TokenRefresher is asked to install
// a new token and the request is re-issued once. The default MintRefresher
// mints unconditionally. Processes that share one token through a database
// should use LockedRefresher with a TokenStore from pkg/tokenstore.
type Config struct {
	// Required fields
	// OAuthURL: the shop's OAuth token endpoint returning {"access_token": ...}.
	OAuthURL string

	// OAuthToken: the addon's permanent OAuth token for this shop.
	OAuthToken string

	// ShopURL: the storefront base URL, used for AuthorizeURL.
	ShopURL string

	// ClientID: the addon client ID, used for AuthorizeURL.
	ClientID string

	// APIToken: initial API access token.
	APIToken string

	// APIURL: API base URL. Defaults to https://api.myshoptet.com/api.
	APIURL string

	// TokenRefresher: strategy invoked on token errors. Defaults to MintRefresher.
	TokenRefresher TokenRefresher

	// HTTPTimeout bounds dial, TLS handshake and response headers. Defaults to 10s.
	HTTPTimeout time.Duration

	// RateLimit caps requests per second when positive. RateBurst defaults to 1.
	RateLimit float64
	RateBurst int

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// Logger receives transport and refresh logs. Debug enables request logging.
	Logger Logger
	Debug  bool
}
