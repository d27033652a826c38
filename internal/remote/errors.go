package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConnectivity is returned when the pre-flight check finds no
	// network path. No request has been sent.
	ErrNoConnectivity = errors.New("no network connectivity")

	// ErrTimeout is wrapped inside a RemoteError when a request ran out of time.
	ErrTimeout = errors.New("request timed out")
)

// RemoteError is a request that was sent but did not succeed: a non-2xx
// answer, a transport failure or a body that could not be decoded.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote failure"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AuthError is a rejection from the identity endpoint. Code carries the
// server's message code, e.g. EMAIL_EXISTS.
type AuthError struct {
	StatusCode int
	Code       string
}

func (e *AuthError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
	}

	return "authentication failed: " + e.Code
}
