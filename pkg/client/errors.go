package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx HTTP response from the VexScan API. The
// message is whatever the server put in its error body, surfaced verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an APIError with the
// given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// IsCredentialInvalid reports whether err means the presented credential was
// rejected as invalid or expired. This is the signal that drives the silent
// refresh path; it is never surfaced to page logic directly.
func IsCredentialInvalid(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNetwork reports whether err is a transport-level failure with no server
// response. Network failures are soft: they never invalidate the stored
// session.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}
