// Package shoptet provides types, interfaces, and helpers for working with the
// Shoptet REST API.
//
// # Overview
//
// The shoptet package defines the client interface, the resource models
// (Product, Order, Stock, ...), the error kinds returned by the API, the token
// refresh strategies and the paginated Enumerator. A concrete client is built
// by the shoptetclient package, which wires configuration, transport and the
// refresh strategy.
//
// Getting a client
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
//	  cli, err := shoptetclient.New(ctx, &shoptet.Config{
//	    OAuthURL:   "https://12345.myshoptet.com/action/ApiOAuthServer/getAccessToken",
//	    OAuthToken: "oauth-token",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  info, err := cli.ShopInfo(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = info
//	}
//
// # Pagination
//
// Listing methods return an Enumerator. The first and last pages are fetched
// when it is created; Size reports the total item count straight away.
//
//	orders, err := cli.Orders(ctx, shoptet.NewQueryParams().WithItemsPerPage(50))
//	if err != nil { /* handle error */ }
//	for order, err := range orders.All() {
//	  if err != nil { break }
//	  _ = order
//	}
//
// # Errors
//
// Classified failures are sentinels compared with errors.Is: ErrAddonSuspended,
// ErrAddonNotInstalled, ErrInvalidTokenNoRights, ErrStockNotFound and
// ErrMaxPageReached. Any other error payload is a *ResponseError, and an empty
// or non-object body is an *EmptyResponseError.
//
// # Token refresh
//
// Expired or invalid tokens are refreshed through the configured
// TokenRefresher and the request is re-issued once. LockedRefresher serializes
// refreshes through a TokenStore so that processes sharing a persisted token
// mint it only once.
package shoptet
