// Package shoptetclient provides the primary entry point for constructing a
// Shoptet API client that implements the shoptet.Client interface.
//
// It layers configuration normalization, the HTTP transport and the token
// refresh strategy on top of the interfaces and types defined in the shoptet
// package. It also carries the one-shot OAuth helpers used while installing
// an addon and logging a customer in.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
//	  "github.com/fivetwenty-io/shoptet-client/pkg/shoptetclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Exchange the installation code for the permanent OAuth token.
//	  installed, err := shoptetclient.Install(ctx, shoptetclient.CodeExchange{
//	    URL:          "https://12345.myshoptet.com/action/ApiOAuthServer/token",
//	    RedirectURL:  "https://addon.example.com/install",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    Code:         "code-from-shop",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  cli, err := shoptetclient.New(ctx, &shoptet.Config{
//	    OAuthURL:   "https://12345.myshoptet.com/action/ApiOAuthServer/getAccessToken",
//	    OAuthToken: installed.AccessToken,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  products, err := cli.Products(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = products
//	}
//
// # Sharing a token between processes
//
// NewWithStore wires a shoptet.LockedRefresher over a TokenStore (see
// pkg/tokenstore) so that workers sharing one persisted token refresh it once.
package shoptetclient
