package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API access token",
		Long:  "Mint and refresh the short-lived API access token of the shop",
	}

	cmd.AddCommand(newTokenMintCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenMintCommand() *cobra.Command {
	var (
		save bool
		show bool
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a new API token",
		Long:  "Request a new API access token with the OAuth token. The token store is not consulted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			token, err := s.client.NewAPIToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to mint API token: %w", err)
			}

			if save && s.store != nil {
				err := s.store.WithLock(cmd.Context(), func(ctx context.Context, record shoptet.TokenRecord) error {
					return record.Save(ctx, token)
				})
				if err != nil {
					return fmt.Errorf("failed to save API token: %w", err)
				}
			}

			return renderToken(cmd, token, show, save && s.store != nil)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the token to the configured token store")
	cmd.Flags().BoolVar(&show, "show", false, "print the token in full")

	return cmd
}

func newTokenRefreshCommand() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the shared API token",
		Long: `Refresh the API token through the configured token store.

If another process already replaced the stored token it is adopted without
minting. Otherwise a new token is minted and stored.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			var refresher shoptet.TokenRefresher = shoptet.MintRefresher{}
			if s.store != nil {
				refresher = shoptet.NewLockedRefresher(s.store)
			}

			if err := refresher.Refresh(cmd.Context(), s.client); err != nil {
				return fmt.Errorf("failed to refresh API token: %w", err)
			}

			return renderToken(cmd, s.client.APIToken(), show, s.store != nil)
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the token in full")

	return cmd
}

func renderToken(cmd *cobra.Command, token string, show, saved bool) error {
	if !show {
		token = maskSecret(token)
	}

	result := map[string]interface{}{"api_token": token, "saved": saved}

	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(cmd.OutOrStdout(), result)
	case constants.FormatYAML:
		return StandardYAMLRenderer(cmd.OutOrStdout(), result)
	default:
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API token: %s (saved: %s)\n", token, yesNo(saved))

		return nil
	}
}
