// Package cs3 provides an HTTP client for a CS3-style storage gateway
// with bearer authentication, single-retry credential refresh, and
// error classification.
package cs3

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for backend failure classification.
// Use errors.Is(err, cs3.ErrNotFound) to check.
var (
	ErrLocked           = errors.New("cs3: resource temporarily unavailable")
	ErrAlreadyExists    = errors.New("cs3: resource already exists")
	ErrNotImplemented   = errors.New("cs3: operation not implemented")
	ErrNotFound         = errors.New("cs3: resource not found")
	ErrAuthFailed       = errors.New("cs3: authentication failed")
	ErrPermissionDenied = errors.New("cs3: permission denied")
	ErrInvalidInput     = errors.New("cs3: invalid input")
	ErrUnknown          = errors.New("cs3: unknown error")
)

// StatusError wraps a sentinel error with the HTTP status code, the
// request ID sent with the call, and the gateway's error message body.
type StatusError struct {
	Status    int
	RequestID string
	Message   string
	Err       error // sentinel, for errors.Is()
}

func (e *StatusError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("cs3: HTTP %d (request-id: %s): %s", e.Status, e.RequestID, e.Message)
	}

	return fmt.Sprintf("cs3: HTTP %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code from the gateway to a sentinel
// error. Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusLocked:
		return ErrLocked
	case http.StatusConflict:
		return ErrAlreadyExists
	case http.StatusNotImplemented:
		return ErrNotImplemented
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusBadRequest:
		return ErrInvalidInput
	default:
		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrUnknown
	}
}

// HTTPStatus maps a classified error back to the status code a serving
// layer should report. It is a pure lookup; unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrLocked):
		return http.StatusLocked
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
