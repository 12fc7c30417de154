package api

import (
	"errors"
	"fmt"
)

// APIError is a business-rule rejection from the backend: the request reached
// the server and was refused ({success:false, error} or an HTTP error status).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.Message)
	}
	return "backend rejected request: " + e.Message
}

// TransportError is a network-level failure: the request never produced a
// usable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsBusinessRejection reports whether err is a backend business-rule
// rejection rather than a transport failure.
func IsBusinessRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
