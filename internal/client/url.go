package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// AssembleURL merges values into the query of base. Values override
// parameters already present in base.
func AssembleURL(base string, values url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", base, err)
	}

	query := u.Query()
	for key, vals := range values {
		query[key] = append([]string(nil), vals...)
	}

	u.RawQuery = query.Encode()

	return u.String(), nil
}

// resourceURL joins escaped path segments onto the API base URL.
func (c *Client) resourceURL(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}

	return c.apiURL + "/" + strings.Join(escaped, "/")
}

// project walks keys into a JSON object. A missing key yields nil.
func project(body json.RawMessage, keys ...string) (json.RawMessage, error) {
	current := body

	for _, key := range keys {
		var object map[string]json.RawMessage
		if err := json.Unmarshal(current, &object); err != nil {
			return nil, fmt.Errorf("reading %q: %w", key, err)
		}

		next, ok := object[key]
		if !ok || string(next) == "null" {
			return nil, nil
		}

		current = next
	}

	return current, nil
}
