package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrSessionExpired is returned for any 401 or 403 answer. The caller must
	// log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrLocationUnavailable is returned when no position can be obtained.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrAlreadyRunning is returned by ProducerLoop.Start outside of Idle.
	ErrAlreadyRunning = errors.New("already running")
	// ErrTooManyFailures stops a loop after consecutive transient failures.
	ErrTooManyFailures = errors.New("too many consecutive failures")
	// ErrNotLoggedIn is returned when a call needs a credential and none is set.
	ErrNotLoggedIn = errors.New("not logged in")
)

// APIError is a non-2xx answer decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (%d %s): %v", e.Message, e.Status, e.Code, e.Fields)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Unwrap lets errors.Is(err, ErrSessionExpired) match auth failures.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrSessionExpired
	}
	return nil
}

// IsTransient reports whether err is worth retrying: missing location,
// network failures, timeouts and 5xx, 408 or 429 answers.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrLocationUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError ||
			apiErr.Status == http.StatusRequestTimeout ||
			apiErr.Status == http.StatusTooManyRequests
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
