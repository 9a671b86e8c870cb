package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/internal/client"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/stretchr/testify/require"
)

const (
	testOAuthToken = "oauth-secret"
	expiredBody    = `{"errors":[{"errorCode":"expired-token","message":"Expired access token."}]}`
)

// fakeShop serves the OAuth token endpoint and API routes. API requests with a
// token other than the last minted one get an expired-token error.
type fakeShop struct {
	t      *testing.T
	server *httptest.Server

	mu         sync.Mutex
	validToken string
	mints      int
	apiCalls   int
	queries    []url.Values
	routes     map[string]string
	pages      map[string]map[string]string
	alwaysFail bool
}

func newFakeShop(t *testing.T) *fakeShop {
	t.Helper()

	shop := &fakeShop{
		t:      t,
		routes: map[string]string{},
		pages:  map[string]map[string]string{},
	}

	shop.server = httptest.NewServer(http.HandlerFunc(shop.serve))
	t.Cleanup(shop.server.Close)

	return shop
}

func (s *fakeShop) serve(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.URL.Path == "/oauth" {
		if request.Header.Get("Authorization") != "Bearer "+testOAuthToken {
			_, _ = writer.Write([]byte(`{"error":"invalid_client"}`))

			return
		}

		s.mints++
		s.validToken = fmt.Sprintf("api-token-%d", s.mints)
		_, _ = fmt.Fprintf(writer, `{"access_token":%q,"expires_in":1800}`, s.validToken)

		return
	}

	if strings.HasPrefix(request.URL.Path, "/plain/") {
		_, _ = writer.Write([]byte(s.routes[request.URL.Path]))

		return
	}

	s.apiCalls++
	s.queries = append(s.queries, request.URL.Query())

	if request.Header.Get("Content-Type") != "application/vnd.shoptet.v1.0" {
		s.t.Errorf("unexpected content type %q", request.Header.Get("Content-Type"))
	}

	token := request.Header.Get("Shoptet-Access-Token")
	if s.alwaysFail || token == "" || token != s.validToken {
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(expiredBody))

		return
	}

	if pages, ok := s.pages[request.URL.Path]; ok {
		_, _ = writer.Write([]byte(pages[request.URL.Query().Get("page")]))

		return
	}

	body, ok := s.routes[request.URL.Path]
	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"errors":[{"errorCode":"not-found","message":"Not found."}]}`))

		return
	}

	_, _ = writer.Write([]byte(body))
}

func (s *fakeShop) setValidToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.validToken = token
}

func (s *fakeShop) counts() (mints, apiCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mints, s.apiCalls
}

func (s *fakeShop) config() *shoptet.Config {
	return &shoptet.Config{
		OAuthURL:   s.server.URL + "/oauth",
		OAuthToken: testOAuthToken,
		ShopURL:    "https://shop.example.com",
		ClientID:   "client-id",
		APIURL:     s.server.URL + "/api",
	}
}

func (s *fakeShop) newClient(config *shoptet.Config) *client.Client {
	s.t.Helper()

	c, err := client.New(context.Background(), config)
	require.NoError(s.t, err)

	return c
}
