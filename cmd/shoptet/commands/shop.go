package commands

import (
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewShopCommand creates the shop command group.
func NewShopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shop",
		Aliases: []string{"eshop"},
		Short:   "Show shop information",
		Long:    "Display information about the shop the addon is installed in",
	}

	cmd.AddCommand(newShopInfoCommand())
	cmd.AddCommand(newShopDesignCommand())
	cmd.AddCommand(newShopSuspendedCommand())

	return cmd
}

func newShopInfoCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show shop information",
		Long:  "Display contact information and settings of the shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.client.ShopInfo(cmd.Context(), shoptet.NewQueryParams().WithInclude(include...))
			if err != nil {
				return fmt.Errorf("failed to get shop info: %w", err)
			}

			return renderRaw(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "optional sections to include")

	return cmd
}

func newShopDesignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "design",
		Short: "Show shop design",
		Long:  "Display the template and design settings of the shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.client.DesignInfo(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to get design info: %w", err)
			}

			return renderRaw(cmd.OutOrStdout(), data)
		},
	}
}

func newShopSuspendedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suspended",
		Short: "Check whether the addon is suspended",
		Long:  "Report whether the shop has suspended the addon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			suspended, err := s.client.IsSuspended(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to check suspension: %w", err)
			}

			result := map[string]bool{"suspended": suspended}

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return StandardJSONRenderer(cmd.OutOrStdout(), result)
			case constants.FormatYAML:
				return StandardYAMLRenderer(cmd.OutOrStdout(), result)
			default:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Suspended: %s\n", yesNo(suspended))

				return nil
			}
		},
	}
}

// NewEndpointsCommand creates the endpoints command group.
func NewEndpointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Inspect approved API endpoints",
		Long:  "List the API endpoints the addon is approved to call",
	}

	cmd.AddCommand(newEndpointsListCommand())
	cmd.AddCommand(newEndpointsApprovedCommand())

	return cmd
}

func newEndpointsListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved endpoints",
		Long:  "List every endpoint the addon may call",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			endpoints, err := s.client.Endpoints(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list endpoints: %w", err)
			}

			items, err := collect(endpoints, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list endpoints: %w", err)
			}

			return renderItems(cmd.OutOrStdout(), items, []string{"Endpoint", "Description"},
				func(e shoptet.Endpoint) []string {
					return []string{e.Endpoint, truncate(orNA(e.Description))}
				})
		},
	}

	flags.register(cmd)

	return cmd
}

func newEndpointsApprovedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approved ENDPOINT",
		Short: "Check whether an endpoint is approved",
		Long:  "Report whether the addon may call ENDPOINT, for example /api/orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			approved, err := s.client.EndpointApproved(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to check endpoint: %w", err)
			}

			result := map[string]interface{}{"endpoint": args[0], "approved": approved}

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return StandardJSONRenderer(cmd.OutOrStdout(), result)
			case constants.FormatYAML:
				return StandardYAMLRenderer(cmd.OutOrStdout(), result)
			default:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s approved: %s\n", args[0], yesNo(approved))

				return nil
			}
		},
	}
}
