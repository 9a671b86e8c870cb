package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
)

// enumerate builds a typed enumerator over an API path.
func enumerate[T any](
	ctx context.Context,
	c *Client,
	params *shoptet.QueryParams,
	dataKey string,
	segments ...string,
) (*shoptet.Enumerator[T], error) {
	e, err := shoptet.NewEnumerator[T](ctx, c, c.resourceURL(segments...), params.ToValues(), dataKey)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", segments[len(segments)-1], err)
	}

	return e, nil
}

// get requests an API path and projects the result.
func (c *Client) get(ctx context.Context, params *shoptet.QueryParams, projection []string, segments ...string) (json.RawMessage, error) {
	body, err := c.Request(ctx, c.resourceURL(segments...), params.ToValues())
	if err != nil {
		return nil, err
	}

	return project(body, projection...)
}

// ShopInfo returns the data object of /eshop.
func (c *Client) ShopInfo(ctx context.Context, params *shoptet.QueryParams) (json.RawMessage, error) {
	return c.get(ctx, params, []string{"data"}, "eshop")
}

// DesignInfo returns the data object of /eshop/design.
func (c *Client) DesignInfo(ctx context.Context, params *shoptet.QueryParams) (json.RawMessage, error) {
	return c.get(ctx, params, []string{"data"}, "eshop", "design")
}

// IsSuspended reports whether the addon is suspended in the shop.
func (c *Client) IsSuspended(ctx context.Context) (bool, error) {
	_, err := c.ShopInfo(ctx, nil)
	if errors.Is(err, shoptet.ErrAddonSuspended) {
		return true, nil
	}

	return false, err
}

// Endpoints lists the endpoints approved for the addon.
func (c *Client) Endpoints(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Endpoint], error) {
	return enumerate[shoptet.Endpoint](ctx, c, params, "", "system", "endpoints")
}

// EndpointApproved reports whether endpoint is in the approved endpoint list.
// The list is fetched once per client.
func (c *Client) EndpointApproved(ctx context.Context, endpoint string) (bool, error) {
	c.endpointsMu.Lock()
	defer c.endpointsMu.Unlock()

	if c.approvedEndpoints == nil {
		e, err := c.Endpoints(ctx, nil)
		if err != nil {
			return false, err
		}

		approved := make(map[string]struct{}, e.Size())

		err = e.ForEach(func(ep shoptet.Endpoint) error {
			approved[ep.Endpoint] = struct{}{}

			return nil
		})
		if err != nil {
			return false, fmt.Errorf("listing endpoints: %w", err)
		}

		c.approvedEndpoints = approved
	}

	_, ok := c.approvedEndpoints[endpoint]

	return ok, nil
}

// Stocks lists warehouses.
func (c *Client) Stocks(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Stock], error) {
	return enumerate[shoptet.Stock](ctx, c, params, "", "stocks")
}

// Supplies lists stock levels of a warehouse.
func (c *Client) Supplies(
	ctx context.Context,
	warehouseID int,
	params *shoptet.QueryParams,
) (*shoptet.Enumerator[shoptet.Supply], error) {
	return enumerate[shoptet.Supply](ctx, c, params, "", "stocks", strconv.Itoa(warehouseID), "supplies")
}

// StockMovements lists stock movements of a warehouse.
func (c *Client) StockMovements(
	ctx context.Context,
	warehouseID int,
	params *shoptet.QueryParams,
) (*shoptet.Enumerator[shoptet.StockMovement], error) {
	return enumerate[shoptet.StockMovement](ctx, c, params, "", "stocks", strconv.Itoa(warehouseID), "movements")
}

// Products lists products.
func (c *Client) Products(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Product], error) {
	return enumerate[shoptet.Product](ctx, c, params, "", "products")
}

// Product returns the data object of one product.
func (c *Client) Product(ctx context.Context, guid string, params *shoptet.QueryParams) (json.RawMessage, error) {
	return c.get(ctx, params, []string{"data"}, "products", guid)
}

// ProductChanges lists the product change feed.
func (c *Client) ProductChanges(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Change], error) {
	return enumerate[shoptet.Change](ctx, c, params, "", "products", "changes")
}

// ProductCategories lists product categories.
func (c *Client) ProductCategories(
	ctx context.Context,
	params *shoptet.QueryParams,
) (*shoptet.Enumerator[shoptet.Category], error) {
	return enumerate[shoptet.Category](ctx, c, params, "", "categories")
}

// PriceLists lists price lists.
func (c *Client) PriceLists(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.PriceList], error) {
	return enumerate[shoptet.PriceList](ctx, c, params, "", "pricelists")
}

// Prices lists the prices of one price list.
func (c *Client) Prices(
	ctx context.Context,
	priceListID int,
	params *shoptet.QueryParams,
) (*shoptet.Enumerator[json.RawMessage], error) {
	return enumerate[json.RawMessage](ctx, c, params, "pricelist", "pricelists", strconv.Itoa(priceListID))
}

// Orders lists orders.
func (c *Client) Orders(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Order], error) {
	return enumerate[shoptet.Order](ctx, c, params, "", "orders")
}

// Order returns one order.
func (c *Client) Order(ctx context.Context, code string, params *shoptet.QueryParams) (json.RawMessage, error) {
	return c.get(ctx, params, []string{"data", "order"}, "orders", code)
}

// OrderChanges lists the order change feed.
func (c *Client) OrderChanges(ctx context.Context, params *shoptet.QueryParams) (*shoptet.Enumerator[shoptet.Change], error) {
	return enumerate[shoptet.Change](ctx, c, params, "", "orders", "changes")
}
