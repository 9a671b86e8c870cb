package client_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authorizedShop(t *testing.T) (*fakeShop, *shoptet.Config) {
	t.Helper()

	shop := newFakeShop(t)
	shop.setValidToken("good")

	config := shop.config()
	config.APIToken = "good"

	return shop, config
}

func TestClient_EndpointApproved(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.routes["/api/system/endpoints"] = `{"data":{"endpoints":[` +
		`{"endpoint":"/api/orders"},{"endpoint":"/api/products"}],` +
		`"paginator":{"pageCount":1,"totalCount":2}}}`
	c := shop.newClient(config)

	approved, err := c.EndpointApproved(context.Background(), "/api/orders")
	require.NoError(t, err)
	assert.True(t, approved)

	approved, err = c.EndpointApproved(context.Background(), "/api/stocks")
	require.NoError(t, err)
	assert.False(t, approved)

	approved, err = c.EndpointApproved(context.Background(), "/api/order")
	require.NoError(t, err)
	assert.False(t, approved)

	_, calls := shop.counts()
	assert.Equal(t, 1, calls)
}

func TestClient_EndpointApproved_NotCachedOnError(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.routes["/api/system/endpoints"] = `{"error":"addon_not_installed"}`
	c := shop.newClient(config)

	_, err := c.EndpointApproved(context.Background(), "/api/orders")
	require.ErrorIs(t, err, shoptet.ErrAddonNotInstalled)

	_, err = c.EndpointApproved(context.Background(), "/api/orders")
	require.ErrorIs(t, err, shoptet.ErrAddonNotInstalled)

	_, calls := shop.counts()
	assert.Equal(t, 2, calls)
}

func TestClient_IsSuspended(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		suspended bool
		wantErr   error
	}{
		{name: "active", body: `{"data":{"contactInformation":{}}}`},
		{name: "suspended marker", body: `{"error":"addon_suspended"}`, suspended: true},
		{
			name:      "not approved",
			body:      `{"errors":[{"errorCode":"invalid-token","message":"Addon installation is not approved."}]}`,
			suspended: true,
		},
		{name: "not installed", body: `{"error":"addon_not_installed"}`, wantErr: shoptet.ErrAddonNotInstalled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shop, config := authorizedShop(t)
			shop.routes["/api/eshop"] = tt.body

			suspended, err := shop.newClient(config).IsSuspended(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.suspended, suspended)
		})
	}
}

func TestClient_SingleResources(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.routes["/api/orders/2024000001"] = `{"data":{"order":{"code":"2024000001"}}}`
	shop.routes["/api/products/guid-1"] = `{"data":{"guid":"guid-1","name":"Mug"}}`
	shop.routes["/api/eshop/design"] = `{"data":{"template":{"name":"Classic"}}}`
	c := shop.newClient(config)

	order, err := c.Order(context.Background(), "2024000001", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"2024000001"}`, string(order))

	product, err := c.Product(context.Background(), "guid-1", shoptet.NewQueryParams().WithInclude("images"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"guid":"guid-1","name":"Mug"}`, string(product))

	design, err := c.DesignInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"template":{"name":"Classic"}}`, string(design))

	shop.mu.Lock()
	defer shop.mu.Unlock()
	assert.Equal(t, "images", shop.queries[1].Get("include"))
}

func TestClient_Orders(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.pages["/api/orders"] = map[string]string{
		"":  `{"data":{"orders":[{"code":"1"},{"code":"2"}],"paginator":{"pageCount":3,"totalCount":5}}}`,
		"2": `{"data":{"orders":[{"code":"3"},{"code":"4"}],"paginator":{"pageCount":3,"totalCount":5}}}`,
		"3": `{"data":{"orders":[{"code":"5"}],"paginator":{"pageCount":3,"totalCount":5}}}`,
	}
	c := shop.newClient(config)

	orders, err := c.Orders(context.Background(), shoptet.NewQueryParams().WithFilter("status", "-2"))
	require.NoError(t, err)
	assert.Equal(t, 5, orders.Size())

	all, err := orders.Collect()
	require.NoError(t, err)

	codes := make([]string, 0, len(all))
	for _, o := range all {
		codes = append(codes, o.Code)
	}

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, codes)

	_, calls := shop.counts()
	assert.Equal(t, 3, calls)

	shop.mu.Lock()
	defer shop.mu.Unlock()

	for _, q := range shop.queries {
		assert.Equal(t, "-2", q.Get("status"))
	}
}

func TestClient_PricesAndSupplies(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.routes["/api/pricelists/4"] = `{"data":{"pricelist":[{"code":"A","price":"10.00"}],` +
		`"paginator":{"pageCount":1,"totalCount":1}}}`
	shop.routes["/api/stocks/2/supplies"] = `{"data":{"supplies":[{"productGuid":"g","code":"A","amount":"3.000"}],` +
		`"paginator":{"pageCount":1,"totalCount":1}}}`
	c := shop.newClient(config)

	prices, err := c.Prices(context.Background(), 4, nil)
	require.NoError(t, err)

	priceItems, err := prices.Collect()
	require.NoError(t, err)
	require.Len(t, priceItems, 1)
	assert.JSONEq(t, `{"code":"A","price":"10.00"}`, string(priceItems[0]))

	supplies, err := c.Supplies(context.Background(), 2, nil)
	require.NoError(t, err)

	supplyItems, err := supplies.Collect()
	require.NoError(t, err)
	require.Len(t, supplyItems, 1)
	assert.Equal(t, shoptet.Decimal("3.000"), supplyItems[0].Amount)
}

func TestClient_Enumerate(t *testing.T) {
	t.Parallel()

	shop, config := authorizedShop(t)
	shop.routes["/api/products/changes"] = `{"data":{"changes":[{"guid":"g1","type":"edit"}],` +
		`"paginator":{"pageCount":1,"totalCount":1}}}`
	c := shop.newClient(config)

	e, err := c.Enumerate(context.Background(), shop.server.URL+"/api/products/changes", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "changes", e.DataKey())
	assert.Equal(t, 1, e.Size())

	changes, err := c.ProductChanges(context.Background(), shoptet.NewQueryParams().WithChangesFrom("2024-01-01T00:00:00+0100"))
	require.NoError(t, err)

	items, err := changes.Collect()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "g1", items[0].GUID)
}
