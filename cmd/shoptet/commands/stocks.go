package commands

import (
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/spf13/cobra"
)

// NewStocksCommand creates the stocks command group.
func NewStocksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stocks",
		Aliases: []string{"stock", "warehouses"},
		Short:   "Browse warehouses",
		Long:    "List warehouses, their supplies and their stock movements",
	}

	cmd.AddCommand(newStocksListCommand())
	cmd.AddCommand(newStocksSuppliesCommand())
	cmd.AddCommand(newStocksMovementsCommand())

	return cmd
}

func newStocksListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List warehouses",
		Long:  "List the warehouses of the shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			stocks, err := s.client.Stocks(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list stocks: %w", err)
			}

			items, err := collect(stocks, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list stocks: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"ID", "Title", "Default", "Delivery Point"},
				func(st shoptet.Stock) []string {
					return []string{fmt.Sprint(st.ID), st.Title, yesNo(st.IsDefault), orNA(st.DeliveryPointTitle)}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newStocksSuppliesCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "supplies STOCK_ID",
		Short: "List supplies of a warehouse",
		Long:  "List the stock level of every product variant in a warehouse",
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

			supplies, err := s.client.Supplies(cmd.Context(), id, flags.params())
			if err != nil {
				return fmt.Errorf("failed to list supplies: %w", stockError(id, err))
			}

			items, err := collect(supplies, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list supplies: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"Code", "Product", "Amount", "Claim", "Location"},
				func(su shoptet.Supply) []string {
					return []string{su.Code, su.ProductGUID, string(su.Amount), orNA(string(su.Claim)), orNA(su.Location)}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newStocksMovementsCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "movements STOCK_ID",
		Short: "List stock movements of a warehouse",
		Long:  "List changes of stock levels in a warehouse",
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

			movements, err := s.client.StockMovements(cmd.Context(), id, flags.params())
			if err != nil {
				return fmt.Errorf("failed to list stock movements: %w", stockError(id, err))
			}

			items, err := collect(movements, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list stock movements: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"ID", "Code", "Amount", "Changed", "Order"},
				func(m shoptet.StockMovement) []string {
					return []string{fmt.Sprint(m.ID), m.Code, string(m.Amount), m.ChangeTime, orNA(m.OrderCode)}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

// stockError names the warehouse when the API reports it does not exist.
func stockError(id int, err error) error {
	if shoptet.IsNotFound(err) {
		return fmt.Errorf("%w: %d: %w", ErrStockNotFound, id, err)
	}

	return err
}
