package github

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the GitHub API. It keeps the
// status code so callers can tell a missing resource apart from a real
// failure.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d %s\n%s\n%s", e.StatusCode, e.Method, e.URL, e.Body)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
