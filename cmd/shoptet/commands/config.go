package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Token store types.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreNATS     = "nats"
	StoreNone     = "none"
)

// Config represents the CLI configuration.
type Config struct {
	ShopURL      string  `json:"shop_url,omitempty"      yaml:"shop_url,omitempty"`
	OAuthURL     string  `json:"oauth_url,omitempty"     yaml:"oauth_url,omitempty"`
	OAuthToken   string  `json:"oauth_token,omitempty"   yaml:"oauth_token,omitempty"`
	APIToken     string  `json:"api_token,omitempty"     yaml:"api_token,omitempty"`
	APIURL       string  `json:"api_url,omitempty"       yaml:"api_url,omitempty"`
	TokenURL     string  `json:"token_url,omitempty"     yaml:"token_url,omitempty"`
	ClientID     string  `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string  `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	RedirectURL  string  `json:"redirect_url,omitempty"  yaml:"redirect_url,omitempty"`
	RateLimit    float64 `json:"rate_limit,omitempty"    yaml:"rate_limit,omitempty"`

	Output    string `json:"output,omitempty"     yaml:"output,omitempty"`
	LogLevel  string `json:"log_level,omitempty"  yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	TokenStore TokenStoreConfig `json:"token_store" yaml:"token_store,omitempty"`
}

// TokenStoreConfig selects where the API token is shared.
type TokenStoreConfig struct {
	// Type is one of file, postgres, redis, nats or none.
	Type    string `json:"type,omitempty"     yaml:"type,omitempty"`
	URL     string `json:"url,omitempty"      yaml:"url,omitempty"`
	Bucket  string `json:"bucket,omitempty"   yaml:"bucket,omitempty"`
	ShopKey string `json:"shop_key,omitempty" yaml:"shop_key,omitempty"`
}

// configKeys lists the keys accepted by "config set" in display order.
var configKeys = []string{
	"shop_url", "oauth_url", "oauth_token", "api_token", "api_url", "token_url",
	"client_id", "client_secret", "redirect_url", "rate_limit",
	"output", "log_level", "log_format",
	"token_store.type", "token_store.url", "token_store.bucket", "token_store.shop_key",
}

var secretKeys = map[string]bool{
	"oauth_token":     true,
	"api_token":       true,
	"client_secret":   true,
	"token_store.url": true,
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the shop credentials and settings used by the CLI",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from file, environment and flags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := loadConfig()
			values := configValues(config)

			if !showSecrets {
				for key := range values {
					if secretKeys[key] {
						values[key] = maskSecret(values[key])
					}
				}
			}

			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return StandardJSONRenderer(out, values)
			case constants.FormatYAML:
				return StandardYAMLRenderer(out, values)
			default:
				return renderConfigTable(out, values)
			}
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and secrets in full")

	return cmd
}

func renderConfigTable(out io.Writer, values map[string]string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Key", "Value")

	for _, key := range configKeys {
		_ = table.Append(key, values[key])
	}

	if file := viper.ConfigFileUsed(); file != "" {
		_ = table.Append("(config file)", file)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and write it to the config file",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			config, err := readConfigFile(path)
			if err != nil {
				return err
			}

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := writeConfigFile(path, config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			value := args[1]
			if secretKeys[args[0]] {
				value = maskSecret(value)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], value)

			return nil
		},
	}
}

// loadConfig reads the effective configuration from viper.
func loadConfig() *Config {
	return &Config{
		ShopURL:      viper.GetString("shop_url"),
		OAuthURL:     viper.GetString("oauth_url"),
		OAuthToken:   viper.GetString("oauth_token"),
		APIToken:     viper.GetString("api_token"),
		APIURL:       viper.GetString("api_url"),
		TokenURL:     viper.GetString("token_url"),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		RedirectURL:  viper.GetString("redirect_url"),
		RateLimit:    viper.GetFloat64("rate_limit"),
		Output:       viper.GetString("output"),
		LogLevel:     viper.GetString("log_level"),
		LogFormat:    viper.GetString("log_format"),
		TokenStore: TokenStoreConfig{
			Type:    viper.GetString("token_store.type"),
			URL:     viper.GetString("token_store.url"),
			Bucket:  viper.GetString("token_store.bucket"),
			ShopKey: viper.GetString("token_store.shop_key"),
		},
	}
}

func configValues(config *Config) map[string]string {
	return map[string]string{
		"shop_url":             config.ShopURL,
		"oauth_url":            config.OAuthURL,
		"oauth_token":          config.OAuthToken,
		"api_token":            config.APIToken,
		"api_url":              config.APIURL,
		"token_url":            config.TokenURL,
		"client_id":            config.ClientID,
		"client_secret":        config.ClientSecret,
		"redirect_url":         config.RedirectURL,
		"rate_limit":           strconv.FormatFloat(config.RateLimit, 'f', -1, 64),
		"output":               config.Output,
		"log_level":            config.LogLevel,
		"log_format":           config.LogFormat,
		"token_store.type":     config.TokenStore.Type,
		"token_store.url":      config.TokenStore.URL,
		"token_store.bucket":   config.TokenStore.Bucket,
		"token_store.shop_key": config.TokenStore.ShopKey,
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "shop_url":
		config.ShopURL = value
	case "oauth_url":
		config.OAuthURL = value
	case "oauth_token":
		config.OAuthToken = value
	case "api_token":
		config.APIToken = value
	case "api_url":
		config.APIURL = value
	case "token_url":
		config.TokenURL = value
	case "client_id":
		config.ClientID = value
	case "client_secret":
		config.ClientSecret = value
	case "redirect_url":
		config.RedirectURL = value
	case "rate_limit":
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rate_limit %q: %w", value, err)
		}

		config.RateLimit = limit
	case "output":
		config.Output = value
	case "log_level":
		config.LogLevel = value
	case "log_format":
		config.LogFormat = value
	case "token_store.type":
		switch value {
		case StoreFile, StorePostgres, StoreRedis, StoreNATS, StoreNone:
		default:
			return fmt.Errorf("%w: %s", constants.ErrUnknownTokenStore, value)
		}

		config.TokenStore.Type = value
	case "token_store.url":
		config.TokenStore.URL = value
	case "token_store.bucket":
		config.TokenStore.Bucket = value
	case "token_store.shop_key":
		config.TokenStore.ShopKey = value
	default:
		keys := append([]string(nil), configKeys...)
		sort.Strings(keys)

		return fmt.Errorf("%w: %s (known keys: %v)", constants.ErrUnknownConfigKey, key, keys)
	}

	return nil
}

// configFilePath returns the file viper read, or $HOME/.shoptet/config.yml.
func configFilePath() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".shoptet", "config.yml"), nil
}

// readConfigFile loads path. A missing file yields an empty config.
func readConfigFile(path string) (*Config, error) {
	config := &Config{}

	// #nosec G304 -- path is the CLI's own config file
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// writeConfigFile writes config to a temporary file and renames it over path.
func writeConfigFile(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	if len(value) <= constants.TokenPreviewLength {
		return Masked
	}

	return value[:constants.TokenPreviewLength] + "..."
}
