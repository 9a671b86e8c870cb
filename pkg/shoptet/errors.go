package shoptet

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Classified API failures. They carry no payload; compare with errors.Is.
var (
	ErrAddonSuspended       = errors.New("addon is suspended")
	ErrAddonNotInstalled    = errors.New("addon is not installed")
	ErrInvalidTokenNoRights = errors.New("access token has no rights for this resource")
	ErrMaxPageReached       = errors.New("requested page is beyond the last page")
	ErrStockNotFound        = errors.New("stock not found")
	ErrEmptyResponse        = errors.New("empty response")
)

// Static errors for err113 compliance.
var (
	ErrMissingAccessToken = errors.New("oauth response does not contain an access token")
	ErrNoMoreItems        = errors.New("no more items")
	ErrConfigRequired     = errors.New("config is required")
	ErrOAuthURLRequired   = errors.New("oauth URL is required")
	ErrOAuthTokenRequired = errors.New("oauth token is required")
	ErrShopURLRequired    = errors.New("shop URL is required")
	ErrClientIDRequired   = errors.New("client ID is required")
	ErrNotAnArray         = errors.New("listing data is not an array")
)

// Error codes returned in the errors list.
const (
	ErrorCodeExpiredToken        = "expired-token"
	ErrorCodeInvalidToken        = "invalid-token"
	ErrorCodeInvalidTokenNoRight = "invalid-token-no-rights"
	ErrorCodeStockNotFound       = "stock-not-found"
	ErrorCodePageNotFound        = "page-not-found"
)

// Top-level error markers.
const (
	MarkerAddonSuspended    = "addon_suspended"
	MarkerAddonNotInstalled = "addon_not_installed"
)

// AddonNotApprovedMessage accompanies invalid-token when the installation is
// suspended rather than the token being stale.
const AddonNotApprovedMessage = "Addon installation is not approved."

const maxPageMessage = "max page is"

// APIError represents one entry of the errors list.
type APIError struct {
	Code     string `json:"errorCode"          yaml:"errorCode"`
	Message  string `json:"message"            yaml:"message"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResponseError is an error payload that matches no classified kind. Body holds
// the whole decoded response.
type ResponseError struct {
	Marker string          `json:"error,omitempty"`
	Errors []APIError      `json:"errors,omitempty"`
	Body   json.RawMessage `json:"-"`
}

// NewResponseError builds a ResponseError from a response body.
func NewResponseError(body json.RawMessage) *ResponseError {
	env := decodeEnvelope(body)
	marker, _ := env.marker()

	return &ResponseError{
		Marker: marker,
		Errors: env.Errors,
		Body:   body,
	}
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	switch {
	case e.Marker != "" && len(e.Errors) == 0:
		return "shoptet error: " + e.Marker
	case len(e.Errors) == 1:
		return e.Errors[0].Error()
	case len(e.Errors) > 1:
		msgs := make([]string, 0, len(e.Errors))
		for i := range e.Errors {
			msgs = append(msgs, e.Errors[i].Error())
		}

		return "multiple errors: " + strings.Join(msgs, "; ")
	default:
		return "unknown error: " + string(e.Body)
	}
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// EmptyResponseError is returned when a response body is empty or is not a
// JSON object.
type EmptyResponseError struct {
	StatusCode int
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *EmptyResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("empty response from %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("empty response from %s (status %d)", e.URL, e.StatusCode)
}

// Unwrap returns the decode error, if any.
func (e *EmptyResponseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEmptyResponse.
func (e *EmptyResponseError) Is(target error) bool {
	return target == ErrEmptyResponse
}

// IsAddonSuspended checks if the error means the addon is suspended.
func IsAddonSuspended(err error) bool {
	return errors.Is(err, ErrAddonSuspended)
}

// IsNotFound checks if the error is a resource-specific not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStockNotFound)
}
