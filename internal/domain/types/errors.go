package types

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized             = errors.New("Unauthorized")
	ErrSessionExpired           = errors.New("Session expired")
	ErrMissingDriverInfo        = errors.New("missing driver info")
	ErrNoValidSession           = errors.New("no valid session")
	ErrLocationPermissionDenied = errors.New("location permission denied")

	ErrNotFound            = errors.New("requested item not found")
	ErrNoLocation          = errors.New("no location available")
	ErrInvalidStatus       = errors.New("invalid availability status")
	ErrChannelNotConnected = errors.New("realtime channel not connected")
	ErrRegistrationFailed  = errors.New("driver registration rejected")
	ErrNoActiveRide        = errors.New("no active ride")
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
