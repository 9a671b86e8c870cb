// Package http is the transport used by the Shoptet client. It issues one
// request, re-sends it once after a connect timeout and decodes the JSON
// object in the response. It does not interpret API errors.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/internal/metrics"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Static errors for err113 compliance.
var (
	ErrNotJSONObject = errors.New("response body is not a JSON object")
)

const redactedPrefixLength = 20

// Client is the HTTP transport.
type Client struct {
	httpClient *retryablehttp.Client
	logger     shoptet.Logger
	debug      bool
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	base       *http.Client
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Form    url.Values
}

// Response represents a decoded HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       json.RawMessage
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger shoptet.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the dial, TLS handshake and response header timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRateLimit limits outgoing requests to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeouts are used as
// they are.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.base = httpClient
	}
}

// NewClient creates a new transport.
func NewClient(opts ...Option) *Client {
	client := &Client{
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	base := client.base
	if base == nil {
		base = newHTTPClient(client.timeout)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = constants.ConnectTimeoutRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = connectTimeoutPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 {
			metrics.ConnectRetriesTotal.Inc()
		}
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	} else {
		retryClient.Logger = nil
	}

	client.httpClient = retryClient

	return client
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: constants.KeepAlive,
	}

	return &http.Client{
		Timeout: timeout * constants.AttemptTimeoutFactor,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       constants.IdleConnTimeout,
		},
	}
}

// connectTimeoutPolicy retries only requests whose connection attempt timed
// out. Every response is final.
func connectTimeoutPolicy(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err == nil {
		return false, nil
	}

	return IsConnectTimeout(err), nil
}

// IsConnectTimeout reports whether err is a timeout while dialing.
func IsConnectTimeout(err error) bool {
	var opErr *net.OpError

	return errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout()
}

// Get performs a GET request and returns the decoded body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (json.RawMessage, error) {
	resp, err := c.Do(ctx, &Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// PostForm performs a form encoded POST request and returns the decoded body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (json.RawMessage, error) {
	resp, err := c.Do(ctx, &Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Headers: map[string]string{"Content-Type": constants.FormContentType},
		Form:    form,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Do performs an HTTP request.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var body interface{}
	if req.Form != nil {
		body = []byte(req.Form.Encode())
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL,
			"headers": redactHeaders(httpReq.Header),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues(req.Method, "error").Inc()

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues(req.Method, "error").Inc()

		return nil, fmt.Errorf("reading response body: %w", err)
	}

	metrics.HTTPRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(httpResp.StatusCode)).Inc()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(respBody),
		})
	}

	decoded, err := decodeBody(httpResp.StatusCode, req.URL, respBody)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       decoded,
	}, nil
}

// decodeBody validates that body holds a JSON object.
func decodeBody(status int, rawURL string, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &shoptet.EmptyResponseError{StatusCode: status, URL: rawURL}
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return nil, &shoptet.EmptyResponseError{
			StatusCode: status,
			URL:        rawURL,
			Err:        fmt.Errorf("%w: %w", ErrNotJSONObject, err),
		}
	}

	return json.RawMessage(trimmed), nil
}

// redactHeaders shortens credential headers for logging.
func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))

	for key := range headers {
		value := headers.Get(key)

		switch http.CanonicalHeaderKey(key) {
		case constants.AccessTokenHeader, "Authorization":
			if len(value) > redactedPrefixLength {
				value = value[:redactedPrefixLength]
			}

			value += "..."
		}

		out[key] = value
	}

	return out
}

// leveledLogger routes retryablehttp messages to a shoptet.Logger.
type leveledLogger struct {
	logger shoptet.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	if len(keysAndValues)%2 == 1 {
		fields["extra"] = keysAndValues[len(keysAndValues)-1]
	}

	return fields
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)
