package spooler

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches (via errors.Is) any HTTP 401 response. The session
// is missing or expired and the user has to log in again.
var ErrUnauthorized = errors.New("not authenticated")

// APIError is a non-2xx response.
type APIError struct {
	Path    string
	Status  int
	Message string // server-provided error text, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// ServerMessage extracts the server-provided text from err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsTransport reports whether err came from the network rather than from a
// server response.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}
