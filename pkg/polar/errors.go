package polar

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken  = errors.New("polar: access token is required")
	ErrInvalidServer = errors.New("polar: invalid server")
	ErrNotFound      = errors.New("polar: resource not found")
	ErrRequestFailed = errors.New("polar: request failed")
	ErrDecodeFailed  = errors.New("polar: failed to decode response")
	ErrCircuitOpen   = errors.New("polar: circuit open, upstream failing")
)

// APIError is a non-2xx response from the Polar API.
type APIError struct {
	StatusCode int
	Type       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("polar: status %d: %s: %s", e.StatusCode, e.Type, e.Detail)
	}
	return fmt.Sprintf("polar: status %d: %s", e.StatusCode, e.Detail)
}

// Is lets errors.Is match 404 responses against ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
