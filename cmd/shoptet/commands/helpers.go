package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Masked       = "***"
	Yes          = "yes"
	No           = "no"

	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrTokenURLRequired    = errors.New("token_url is required for the code exchange")
	ErrRedirectURLRequired = errors.New("redirect URL is required (--redirect-url or redirect_url)")
	ErrInvalidID           = errors.New("ID must be a positive integer")
	ErrStockNotFound       = errors.New("warehouse does not exist")
)

// StandardJSONRenderer writes data as indented JSON.
func StandardJSONRenderer[T any](out io.Writer, data T) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer[T any](out io.Writer, data T) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(defaultJSONIndent)

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

// renderRaw writes an API document. Raw JSON has no table form, so the table
// format prints top-level fields as key/value rows.
func renderRaw(out io.Writer, raw json.RawMessage) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(out, raw)
	case constants.FormatYAML:
		return renderJSONAsYAML(out, raw)
	default:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return StandardJSONRenderer(out, raw)
		}

		table := tablewriter.NewWriter(out)
		table.Header("Field", "Value")

		for _, key := range sortedKeys(fields) {
			_ = table.Append(key, truncate(scalarString(fields[key])))
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// renderItems writes a listing in the configured format. row turns an item
// into table cells matching header.
func renderItems[T any](out io.Writer, items []T, header []string, row func(T) []string) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(out, items)
	case constants.FormatYAML:
		return renderJSONAsYAML(out, items)
	}

	if len(items) == 0 {
		_, _ = io.WriteString(out, "No items found\n")

		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header(toAny(header)...)

	for _, item := range items {
		_ = table.Append(toAny(row(item))...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderJSONAsYAML writes v as YAML using its JSON field names. Raw API
// documents would otherwise be encoded as byte lists.
func renderJSONAsYAML(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}

	return StandardYAMLRenderer(out, doc)
}

// listFlags are shared by every listing command.
type listFlags struct {
	limit        int
	itemsPerPage int
	include      []string
	filters      map[string]string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "stop after this many items (0 lists everything)")
	cmd.Flags().IntVar(&f.itemsPerPage, "items-per-page", 0, "page size requested from the API")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "optional sections to include")
	cmd.Flags().StringToStringVarP(&f.filters, "filter", "f", nil, "API filter as KEY=VALUE (repeatable)")
}

func (f *listFlags) params() *shoptet.QueryParams {
	params := shoptet.NewQueryParams()

	if f.itemsPerPage > 0 {
		params.WithItemsPerPage(f.itemsPerPage)
	}

	if len(f.include) > 0 {
		params.WithInclude(f.include...)
	}

	for key, value := range f.filters {
		params.WithFilter(key, value)
	}

	return params
}

// collect drains e, stopping after limit items when limit is positive.
func collect[T any](e *shoptet.Enumerator[T], limit int) ([]T, error) {
	size := max(e.Size(), 0)
	if limit > 0 {
		size = min(size, limit)
	}

	items := make([]T, 0, size)

	for item, err := range e.All() {
		if err != nil {
			return nil, err
		}

		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return items, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	if string(raw) == "null" {
		return NotAvailable
	}

	return string(raw)
}

func truncate(s string) string {
	if len(s) <= constants.TruncateLength {
		return s
	}

	return s[:constants.TruncateLength-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return Yes
	}

	return No
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}

	return s
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
