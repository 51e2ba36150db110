package hotelapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNilClient is returned when a Client has no HTTP client configured.
	ErrNilClient = errors.New("hotelapi: http client is nil")
	// ErrNoSessionID is returned when start-session succeeds without an id.
	ErrNoSessionID = errors.New("hotelapi: start session returned no session id")
)

// APIError is a failure reported by the remote service, either through a
// non-2xx status or through an envelope whose status is not "success".
type APIError struct {
	Status  int    // HTTP status code of the response
	Message string // envelope message, or the status text when absent
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hotelapi: status %d", e.Status)
	}
	return fmt.Sprintf("hotelapi: status %d: %s", e.Status, e.Message)
}

// IsSessionInvalid reports whether err means the assistant service no longer
// recognises the session id. The service signals this with 400 or 404.
func IsSessionInvalid(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusNotFound
}
