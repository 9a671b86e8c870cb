package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds dialing, the TLS handshake, writing the request
	// and waiting for response headers.
	DefaultHTTPTimeout = 10 * time.Second

	// AttemptTimeoutFactor multiplies DefaultHTTPTimeout into the cap for one
	// whole attempt including reading the body.
	AttemptTimeoutFactor = 3

	// IdleConnTimeout is how long idle keep-alive connections are kept.
	IdleConnTimeout = 90 * time.Second

	// KeepAlive is the TCP keep-alive period for API connections.
	KeepAlive = 30 * time.Second
)

// Retry limits.
const (
	// ConnectTimeoutRetries is how many times a request is re-sent after a
	// connect timeout.
	ConnectTimeoutRetries = 1

	// RetryWaitMin is the minimum pause before a connect-timeout retry.
	RetryWaitMin = 100 * time.Millisecond

	// RetryWaitMax is the maximum pause before a connect-timeout retry.
	RetryWaitMax = time.Second
)

// Shoptet endpoints and wire constants.
const (
	// DefaultAPIURL is the base URL of the public Shoptet API.
	DefaultAPIURL = "https://api.myshoptet.com/api"

	// AccessTokenHeader carries the API access token.
	AccessTokenHeader = "Shoptet-Access-Token"

	// VendorContentType is sent with every API request.
	VendorContentType = "application/vnd.shoptet.v1.0"

	// FormContentType is used by the OAuth helpers.
	FormContentType = "application/x-www-form-urlencoded"

	// DefaultUserAgent is sent unless overridden.
	DefaultUserAgent = "shoptet-client-go"

	// AuthorizePath is appended to the shop URL to build the OAuth authorize URL.
	AuthorizePath = "action/OAuthServer/authorize"

	// PageParam is the query parameter selecting a listing page.
	PageParam = "page"

	// ItemsPerPageParam is the query parameter selecting the page size.
	ItemsPerPageParam = "itemsPerPage"

	// IncludeParam selects optional sections of a resource.
	IncludeParam = "include"
)

// OAuth scopes and grants.
const (
	// ScopeAPI is requested when installing the addon.
	ScopeAPI = "api"

	// ScopeBasicEshop is requested for customer login.
	ScopeBasicEshop = "basic_eshop"

	// GrantAuthorizationCode is the only grant the helpers use.
	GrantAuthorizationCode = "authorization_code"
)

// Token store defaults.
const (
	// LockPollInterval is how often a distributed token lock is re-tried.
	LockPollInterval = 50 * time.Millisecond

	// LockTTL bounds how long a crashed holder can keep a distributed lock. A
	// live holder renews it every third of the TTL.
	LockTTL = 30 * time.Second
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Command line limits.
const (
	// MinimumArgumentCount is the number of arguments for KEY VALUE commands.
	MinimumArgumentCount = 2

	// TruncateLength is where long table cells get cut.
	TruncateLength = 48

	// TokenPreviewLength is how much of a token is shown in config output.
	TokenPreviewLength = 8
)
