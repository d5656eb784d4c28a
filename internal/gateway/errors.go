package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the gateway does not know the job.
	ErrNotFound = errors.New("job not found")
	// ErrUnavailable is returned when the gateway cannot be reached or the
	// circuit breaker is open.
	ErrUnavailable = errors.New("gateway unavailable")
)

const codeNotFound = "not_found"

// RPCError is an error reported by the gateway for a single call. The gateway
// answered, so it never counts against the circuit breaker.
type RPCError struct {
	Method  string
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Method, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

func (e *RPCError) Is(target error) bool {
	return target == ErrNotFound && e.Code == codeNotFound
}
