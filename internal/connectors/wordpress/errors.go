package wordpress

import (
	"errors"
	"fmt"
)

// WordPress-specific errors.
var (
	// ErrSiteURLRequired indicates no site URL was configured.
	ErrSiteURLRequired = errors.New("wordpress: site URL is required")
)

// APIError represents a WordPress REST API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsEndOfData checks if the error is the API's way of saying a page
// past the end was requested. WordPress answers 400 (rest_post_invalid_
// page_number) or 404 for those; both mean "no more data", not failure.
func IsEndOfData(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 400 || apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsServerError checks if the error is a server-side failure.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
