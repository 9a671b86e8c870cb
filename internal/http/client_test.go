package http_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	shoptethttp "github.com/fivetwenty-io/shoptet-client/internal/http"
	"github.com/fivetwenty-io/shoptet-client/internal/metrics"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		msg, _ := entry["msg"].(string)
		out = append(out, msg)
	}

	return out
}

// timeoutError satisfies the net timeout interface.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// scriptedTransport returns errs[i] for the i-th call, then delegates.
type scriptedTransport struct {
	calls atomic.Int32
	errs  []error
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"data":{"ok":true}}`)),
		Request:    req,
	}, nil
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Get(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/eshop", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "secret", request.Header.Get("Shoptet-Access-Token"))
			assert.Equal(t, "shoptet-client-go", request.Header.Get("User-Agent"))

			_, _ = writer.Write([]byte(`{"data":{"contactInformation":{"eshopName":"Test"}}}`))
		}))
		defer server.Close()

		client := shoptethttp.NewClient()

		body, err := client.Get(context.Background(), server.URL+"/api/eshop",
			map[string]string{"Shoptet-Access-Token": "secret"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":{"contactInformation":{"eshopName":"Test"}}}`, string(body))
	})

	t.Run("error payload is returned undecided", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
			_, _ = writer.Write([]byte(`{"errors":[{"errorCode":"expired-token","message":"Expired."}]}`))
		}))
		defer server.Close()

		body, err := shoptethttp.NewClient().Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Contains(t, string(body), "expired-token")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		_, err := shoptethttp.NewClient().Get(context.Background(), server.URL, nil)
		require.ErrorIs(t, err, shoptet.ErrEmptyResponse)

		var emptyErr *shoptet.EmptyResponseError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, http.StatusNoContent, emptyErr.StatusCode)
		assert.Equal(t, server.URL, emptyErr.URL)
	})

	t.Run("html body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			_, _ = writer.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer server.Close()

		_, err := shoptethttp.NewClient().Get(context.Background(), server.URL, nil)
		require.ErrorIs(t, err, shoptet.ErrEmptyResponse)
		require.ErrorIs(t, err, shoptethttp.ErrNotJSONObject)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte(`{"result":"ok"}`))
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := shoptethttp.NewClient(shoptethttp.WithLogger(logger), shoptethttp.WithDebug(true))

		_, err := client.Get(context.Background(), server.URL,
			map[string]string{"Shoptet-Access-Token": "0123456789012345678901234567890"})
		require.NoError(t, err)

		msgs := logger.messages()
		assert.Contains(t, msgs, "HTTP Request")
		assert.Contains(t, msgs, "HTTP Response")

		fields, ok := logger.logs[0]["fields"].(map[string]interface{})
		require.True(t, ok)

		headers, ok := fields["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "01234567890123456789...", headers["Shoptet-Access-Token"])
	})
}

func TestClient_PostForm(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", request.Header.Get("Content-Type"))
		assert.NoError(t, request.ParseForm())
		assert.Equal(t, "authorization_code", request.PostForm.Get("grant_type"))
		assert.Equal(t, "abc", request.PostForm.Get("code"))

		_, _ = writer.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer server.Close()

	body, err := shoptethttp.NewClient().PostForm(context.Background(), server.URL,
		url.Values{"grant_type": []string{"authorization_code"}, "code": []string{"abc"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"tok"}`, string(body))
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryPolicy(t *testing.T) {
	t.Parallel()
	t.Run("retries once on connect timeout", func(t *testing.T) {
		t.Parallel()

		dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}
		transport := &scriptedTransport{errs: []error{dialTimeout}}
		before := testutil.ToFloat64(metrics.ConnectRetriesTotal)

		client := shoptethttp.NewClient(shoptethttp.WithHTTPClient(&http.Client{Transport: transport}))

		body, err := client.Get(context.Background(), "http://shop.invalid/api/eshop", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":{"ok":true}}`, string(body))
		assert.Equal(t, int32(2), transport.calls.Load())
		assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.ConnectRetriesTotal)-before, 1.0)
	})

	t.Run("gives up after second connect timeout", func(t *testing.T) {
		t.Parallel()

		dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}
		transport := &scriptedTransport{errs: []error{dialTimeout, dialTimeout, dialTimeout}}

		client := shoptethttp.NewClient(shoptethttp.WithHTTPClient(&http.Client{Transport: transport}))

		_, err := client.Get(context.Background(), "http://shop.invalid/api/eshop", nil)
		require.Error(t, err)
		assert.True(t, shoptethttp.IsConnectTimeout(err))
		assert.Equal(t, int32(2), transport.calls.Load())
	})

	t.Run("does not retry read timeouts", func(t *testing.T) {
		t.Parallel()

		readTimeout := &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}
		transport := &scriptedTransport{errs: []error{readTimeout}}

		client := shoptethttp.NewClient(shoptethttp.WithHTTPClient(&http.Client{Transport: transport}))

		_, err := client.Get(context.Background(), "http://shop.invalid/api/eshop", nil)
		require.Error(t, err)
		assert.Equal(t, int32(1), transport.calls.Load())
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{errs: []error{errBoom}}

		client := shoptethttp.NewClient(shoptethttp.WithHTTPClient(&http.Client{Transport: transport}))

		_, err := client.Get(context.Background(), "http://shop.invalid/api/eshop", nil)
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, int32(1), transport.calls.Load())
	})

	t.Run("does not retry server errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte(`{"error":"maintenance"}`))
		}))
		defer server.Close()

		body, err := shoptethttp.NewClient().Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Contains(t, string(body), "maintenance")
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("canceled context is not retried", func(t *testing.T) {
		t.Parallel()

		dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}
		transport := &scriptedTransport{errs: []error{dialTimeout, dialTimeout}}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := shoptethttp.NewClient(shoptethttp.WithHTTPClient(&http.Client{Transport: transport}))

		_, err := client.Get(ctx, "http://shop.invalid/api/eshop", nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.LessOrEqual(t, transport.calls.Load(), int32(1))
	})
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		_, _ = writer.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := shoptethttp.NewClient(shoptethttp.WithRateLimit(1, 1))

	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Get(ctx, server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}
