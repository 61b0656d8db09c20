package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrInvalidRate        = errors.New("rate must be greater than zero")
	ErrMissingCredentials = errors.New("missing API credentials")
	ErrEmptyResponse      = errors.New("empty model response")
)

// StatusError is a backend failure normalized to an HTTP-style status code.
// Code is 0 when the provider gave none.
type StatusError struct {
	Provider string
	Code     int
	Err      error
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Provider, e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsTransient reports whether a failed call is worth retrying on the same
// candidate: throttling, server-side errors and network timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		if se.Code != 0 {
			return false
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
