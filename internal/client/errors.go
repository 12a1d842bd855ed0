// ABOUTME: API error model for backend responses
// ABOUTME: Distinguishes authorization failures from other backend errors

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// IsUnauthorized reports whether the error is an authorization failure
// (401/403-class response).
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}
