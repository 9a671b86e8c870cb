package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptetclient"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewOAuthCommand creates the oauth command group.
func NewOAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Addon installation and customer login",
		Long:  "Build authorize URLs and exchange authorization codes for tokens",
	}

	cmd.AddCommand(newOAuthAuthorizeURLCommand())
	cmd.AddCommand(newOAuthInstallCommand())
	cmd.AddCommand(newOAuthLoginTokenCommand())

	return cmd
}

func newOAuthAuthorizeURLCommand() *cobra.Command {
	var redirectURL, state string

	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the customer login URL",
		Long:  "Build the shop URL that starts a customer login with the basic_eshop scope",
		RunE: func(cmd *cobra.Command, _ []string) error {
			redirectURL = firstNonEmpty(redirectURL, viper.GetString("redirect_url"))
			if redirectURL == "" {
				return ErrRedirectURLRequired
			}

			if state == "" {
				state = uuid.NewString()
			}

			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			authorizeURL, err := s.client.AuthorizeURL(redirectURL, state)
			if err != nil {
				return fmt.Errorf("failed to build authorize URL: %w", err)
			}

			result := map[string]string{"url": authorizeURL, "state": state}

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return StandardJSONRenderer(cmd.OutOrStdout(), result)
			case constants.FormatYAML:
				return StandardYAMLRenderer(cmd.OutOrStdout(), result)
			default:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), authorizeURL)

				return nil
			}
		},
	}

	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "URL the shop redirects back to")
	cmd.Flags().StringVar(&state, "state", "", "opaque state echoed back (random when empty)")

	return cmd
}

func newOAuthInstallCommand() *cobra.Command {
	var (
		redirectURL string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "install CODE",
		Short: "Exchange an installation code",
		Long:  "Exchange the code a shop sends when installing the addon for its permanent OAuth token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := codeExchange(cmd, args[0], redirectURL)
			if err != nil {
				return err
			}

			resp, err := shoptetclient.Install(cmd.Context(), exchange)
			if err != nil {
				return fmt.Errorf("failed to install addon: %w", err)
			}

			if save {
				if err := saveOAuthToken(resp.AccessToken); err != nil {
					return err
				}
			}

			return renderValue(cmd.OutOrStdout(), resp, [][]string{
				{"Access Token", resp.AccessToken},
				{"Scope", resp.Scope},
				{"Eshop ID", fmt.Sprint(resp.EshopID)},
				{"Eshop URL", orNA(resp.EshopURL)},
				{"Contact Email", orNA(resp.ContactEmail)},
			})
		},
	}

	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "redirect URL registered for the addon")
	cmd.Flags().BoolVar(&save, "save", false, "store the OAuth token as oauth_token in the config file")

	return cmd
}

func newOAuthLoginTokenCommand() *cobra.Command {
	var redirectURL string

	cmd := &cobra.Command{
		Use:   "login-token CODE",
		Short: "Exchange a customer login code",
		Long:  "Exchange the code returned to the authorize redirect for a basic_eshop access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := codeExchange(cmd, args[0], redirectURL)
			if err != nil {
				return err
			}

			resp, err := shoptetclient.LoginToken(cmd.Context(), exchange)
			if err != nil {
				return fmt.Errorf("failed to exchange login code: %w", err)
			}

			return renderValue(cmd.OutOrStdout(), resp, [][]string{
				{"Access Token", resp.AccessToken},
				{"Token Type", resp.TokenType},
				{"Expires In", fmt.Sprint(resp.ExpiresIn)},
				{"Scope", resp.Scope},
			})
		},
	}

	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "redirect URL used for the authorize request")

	return cmd
}

func codeExchange(cmd *cobra.Command, code, redirectURL string) (shoptetclient.CodeExchange, error) {
	config := loadConfig()

	if config.TokenURL == "" {
		return shoptetclient.CodeExchange{}, ErrTokenURLRequired
	}

	redirectURL = firstNonEmpty(redirectURL, config.RedirectURL)
	if redirectURL == "" {
		return shoptetclient.CodeExchange{}, ErrRedirectURLRequired
	}

	secret := config.ClientSecret
	if secret == "" {
		var err error

		secret, err = promptSecret(cmd, "Client secret: ")
		if err != nil {
			return shoptetclient.CodeExchange{}, err
		}
	}

	return shoptetclient.CodeExchange{
		URL:          config.TokenURL,
		RedirectURL:  redirectURL,
		ClientID:     config.ClientID,
		ClientSecret: secret,
		Code:         code,
	}, nil
}

// promptSecret reads a secret without echo when stdin is a terminal and a
// plain line otherwise.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}

		return string(secret), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func saveOAuthToken(token string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	config, err := readConfigFile(path)
	if err != nil {
		return err
	}

	config.OAuthToken = token
	config.APIToken = ""

	if err := writeConfigFile(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// renderValue writes v as JSON or YAML, or rows as a two-column table.
func renderValue(out io.Writer, v any, rows [][]string) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(out, v)
	case constants.FormatYAML:
		return StandardYAMLRenderer(out, v)
	default:
		return renderItems(out, rows, []string{"Property", "Value"}, func(row []string) []string { return row })
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
