package shoptet

import (
	"encoding/json"
	"errors"
	"strings"
)

// tokenErrorMessages are matched as substrings of invalid-token messages.
var tokenErrorMessages = []string{
	"Invalid access token",
	"invalid access token",
	"Missing access token",
	"missing access token",
}

type envelope struct {
	Marker json.RawMessage `json:"error"`
	Errors []APIError      `json:"errors"`
}

// marker returns the top-level error marker and whether one is present. A
// missing, null or false marker is absent; any other value, "" included, is
// present.
func (e envelope) marker() (string, bool) {
	switch string(e.Marker) {
	case "", "null", "false":
		return "", false
	}

	var s string
	if err := json.Unmarshal(e.Marker, &s); err == nil {
		return s, true
	}

	return string(e.Marker), true
}

func decodeEnvelope(body json.RawMessage) envelope {
	var env envelope

	_ = json.Unmarshal(body, &env)

	return env
}

// IsTokenError reports whether an API error means the access token is
// expired or invalid.
func IsTokenError(e APIError) bool {
	switch e.Code {
	case ErrorCodeExpiredToken:
		return true
	case ErrorCodeInvalidToken:
		for _, msg := range tokenErrorMessages {
			if strings.Contains(e.Message, msg) {
				return true
			}
		}
	}

	return false
}

// ClassifyResponse inspects a decoded response body. It returns the token
// errors found, which callers answer with a refresh, or the error kind that
// makes the response a failure. A body with neither marker nor errors yields
// an empty list and nil.
func ClassifyResponse(body json.RawMessage) ([]APIError, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ResponseError{Body: body}
	}

	marker, hasMarker := env.marker()

	var tokenErrors, others []APIError

	for _, e := range env.Errors {
		if IsTokenError(e) {
			tokenErrors = append(tokenErrors, e)
		} else {
			others = append(others, e)
		}
	}

	if !hasMarker && len(others) == 0 {
		return tokenErrors, nil
	}

	switch {
	case marker == MarkerAddonSuspended || hasError(others, isAddonNotApproved):
		return nil, ErrAddonSuspended
	case marker == MarkerAddonNotInstalled:
		return nil, ErrAddonNotInstalled
	case hasError(others, codeIs(ErrorCodeInvalidTokenNoRight)):
		return nil, ErrInvalidTokenNoRights
	case hasError(others, codeIs(ErrorCodeStockNotFound)):
		return nil, ErrStockNotFound
	case hasError(others, isMaxPage):
		return nil, ErrMaxPageReached
	}

	return nil, &ResponseError{Marker: marker, Errors: env.Errors, Body: body}
}

// CheckResponse classifies body and turns remaining token errors into a
// ResponseError. Used where a refresh is not possible.
func CheckResponse(body json.RawMessage) error {
	tokenErrors, err := ClassifyResponse(body)
	if err != nil {
		return err
	}

	if len(tokenErrors) > 0 {
		return NewResponseError(body)
	}

	return nil
}

// IsClassified reports whether err is one of the classified API kinds.
func IsClassified(err error) bool {
	var respErr *ResponseError

	return errors.Is(err, ErrAddonSuspended) ||
		errors.Is(err, ErrAddonNotInstalled) ||
		errors.Is(err, ErrInvalidTokenNoRights) ||
		errors.Is(err, ErrStockNotFound) ||
		errors.Is(err, ErrMaxPageReached) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.As(err, &respErr)
}

func hasError(errs []APIError, match func(APIError) bool) bool {
	for _, e := range errs {
		if match(e) {
			return true
		}
	}

	return false
}

func codeIs(code string) func(APIError) bool {
	return func(e APIError) bool { return e.Code == code }
}

func isAddonNotApproved(e APIError) bool {
	return e.Code == ErrorCodeInvalidToken && e.Message == AddonNotApprovedMessage
}

func isMaxPage(e APIError) bool {
	return e.Code == ErrorCodePageNotFound && strings.Contains(e.Message, maxPageMessage)
}
