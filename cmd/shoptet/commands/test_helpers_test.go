package commands_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/cmd/shoptet/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// fakeShop serves the OAuth token endpoint and a few API resources. Requests
// with any token other than the last minted one get an expired-token error.
type fakeShop struct {
	server *httptest.Server

	mu     sync.Mutex
	mints  int
	valid  string
	routes map[string]string
}

func newFakeShop(t *testing.T) *fakeShop {
	t.Helper()

	shop := &fakeShop{routes: map[string]string{}}
	shop.server = httptest.NewServer(http.HandlerFunc(shop.serve))
	t.Cleanup(shop.server.Close)

	return shop
}

func (s *fakeShop) serve(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.URL.Path == "/oauth" {
		if request.Header.Get("Authorization") != "Bearer oauth-secret" {
			_, _ = writer.Write([]byte(`{"error":"invalid_client","error_description":"bad token"}`))

			return
		}

		s.mints++
		s.valid = "minted-" + strconv.Itoa(s.mints)
		_, _ = writer.Write([]byte(`{"access_token":"` + s.valid + `","expires_in":1800}`))

		return
	}

	if s.valid == "" || request.Header.Get("Shoptet-Access-Token") != s.valid {
		_, _ = writer.Write([]byte(`{"data":null,"errors":[{"errorCode":"expired-token","message":"Expired access token."}]}`))

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

func (s *fakeShop) mintCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mints
}

// writeConfig writes a config file pointing at shop and returns its path.
func writeConfig(t *testing.T, shop *fakeShop, extra string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	content := "oauth_url: " + shop.server.URL + "/oauth\n" +
		"oauth_token: oauth-secret\n" +
		"api_url: " + shop.server.URL + "/api\n" +
		"shop_url: https://shop.example.com/\n" +
		"client_id: client-id\n" + extra

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// execute runs the CLI with args and returns stdout. Viper is global, so
// these tests do not run in parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	var out, errOut bytes.Buffer

	root := commands.NewRootCommand("1.2.3", "abc123", "2024-05-01")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}
