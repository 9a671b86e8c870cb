package commands

import (
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/spf13/cobra"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Browse orders",
		Long:    "List orders, show one order and follow the order change feed",
	}

	cmd.AddCommand(newOrdersListCommand())
	cmd.AddCommand(newOrdersGetCommand())
	cmd.AddCommand(newOrdersChangesCommand())

	return cmd
}

func newOrdersListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Long:  "List orders, optionally filtered (for example -f statusId=-2)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			orders, err := s.client.Orders(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}

			items, err := collect(orders, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items,
				[]string{"Code", "Created", "Customer", "Status", "Total", "Paid"},
				func(o shoptet.Order) []string {
					paid := NotAvailable
					if o.Paid != nil {
						paid = yesNo(*o.Paid)
					}

					customer := o.FullName
					if customer == "" {
						customer = o.Company
					}

					total := string(o.Price.WithVat)
					if total != "" {
						total += " " + o.Price.CurrencyCode
					}

					return []string{o.Code, o.CreationTime, truncate(orNA(customer)), o.Status.Name, orNA(total), paid}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newOrdersGetCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get CODE",
		Short: "Get order details",
		Long:  "Display one order by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			order, err := s.client.Order(cmd.Context(), args[0], shoptet.NewQueryParams().WithInclude(include...))
			if err != nil {
				return fmt.Errorf("failed to get order %s: %w", args[0], err)
			}

			return renderRaw(cmd.OutOrStdout(), order)
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "optional sections to include (notes, images, ...)")

	return cmd
}

func newOrdersChangesCommand() *cobra.Command {
	var (
		flags listFlags
		from  string
	)

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List order changes",
		Long:  "List orders created, edited or deleted since --from",
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

			changes, err := s.client.OrderChanges(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list order changes: %w", err)
			}

			return renderChanges(cmd, changes, flags.limit, "Code", func(c shoptet.Change) string { return c.Code })
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "only changes after this time (2024-01-01T00:00:00+0100)")

	return cmd
}
