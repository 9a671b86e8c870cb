package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/spf13/cobra"
)

// NewProductsCommand creates the products command group.
func NewProductsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse products",
		Long:    "List products, show one product and follow the product change feed",
	}

	cmd.AddCommand(newProductsListCommand())
	cmd.AddCommand(newProductsGetCommand())
	cmd.AddCommand(newProductsChangesCommand())

	return cmd
}

func newProductsListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long:  "List catalogue products, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			products, err := s.client.Products(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			items, err := collect(products, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items,
				[]string{"GUID", "Name", "Type", "Visibility", "Category", "Created"},
				func(p shoptet.Product) []string {
					category := NotAvailable
					if p.DefaultCategory != nil {
						category = p.DefaultCategory.Name
					}

					return []string{p.GUID, truncate(p.Name), p.Type, p.Visibility, category, p.CreationTime}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newProductsGetCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get GUID",
		Short: "Get product details",
		Long:  "Display one product by its GUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			product, err := s.client.Product(cmd.Context(), args[0], shoptet.NewQueryParams().WithInclude(include...))
			if err != nil {
				return fmt.Errorf("failed to get product %s: %w", args[0], err)
			}

			return renderRaw(cmd.OutOrStdout(), product)
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "optional sections to include (images, variantParameters, ...)")

	return cmd
}

func newProductsChangesCommand() *cobra.Command {
	var (
		flags listFlags
		from  string
	)

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List product changes",
		Long:  "List products created, edited or deleted since --from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			params := flags.params()
			if from != "" {
				params.WithChangesFrom(from)
			}

			changes, err := s.client.ProductChanges(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list product changes: %w", err)
			}

			return renderChanges(cmd, changes, flags.limit, "GUID", func(c shoptet.Change) string { return c.GUID })
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "only changes after this time (2024-01-01T00:00:00+0100)")

	return cmd
}

func renderChanges(
	cmd *cobra.Command,
	changes *shoptet.Enumerator[shoptet.Change],
	limit int,
	idHeader string,
	id func(shoptet.Change) string,
) error {
	items, err := collect(changes, limit)
	if err != nil {
		return fmt.Errorf("failed to list changes: %w", err)
	}

	return renderItems(cmd.OutOrStdout(), items, []string{idHeader, "Type", "Changed"},
		func(c shoptet.Change) []string {
			return []string{id(c), c.Type, c.ChangeTime}
		})
}

// NewCategoriesCommand creates the categories command group.
func NewCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Browse product categories",
		Long:    "List the product categories of the shop",
	}

	cmd.AddCommand(newCategoriesListCommand())

	return cmd
}

func newCategoriesListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Long:  "List product categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			categories, err := s.client.ProductCategories(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			items, err := collect(categories, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"GUID", "Name", "Parent", "Visible"},
				func(c shoptet.Category) []string {
					return []string{c.GUID, truncate(c.Name), orNA(c.ParentGUID), yesNo(c.Visible)}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

// NewPriceListsCommand creates the pricelists command group.
func NewPriceListsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pricelists",
		Aliases: []string{"pricelist"},
		Short:   "Browse price lists",
		Long:    "List price lists and the prices they contain",
	}

	cmd.AddCommand(newPriceListsListCommand())
	cmd.AddCommand(newPriceListsPricesCommand())

	return cmd
}

func newPriceListsListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List price lists",
		Long:  "List the price lists of the shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			priceLists, err := s.client.PriceLists(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list price lists: %w", err)
			}

			items, err := collect(priceLists, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list price lists: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"ID", "Name"},
				func(p shoptet.PriceList) []string {
					return []string{fmt.Sprint(p.ID), p.Name}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newPriceListsPricesCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "prices PRICE_LIST_ID",
		Short: "List prices of a price list",
		Long:  "List the product prices of one price list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			prices, err := s.client.Prices(cmd.Context(), id, flags.params())
			if err != nil {
				return fmt.Errorf("failed to list prices: %w", err)
			}

			items, err := collect(prices, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list prices: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"Code", "Price"},
				func(raw json.RawMessage) []string {
					var price struct {
						Code  string          `json:"code"`
						Price shoptet.Decimal `json:"price"`
					}

					_ = json.Unmarshal(raw, &price)

					return []string{orNA(price.Code), orNA(string(price.Price))}
				})
		},
	}

	flags.register(cmd)

	return cmd
}
