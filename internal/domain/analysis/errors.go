package analysis

import (
	"errors"
	"fmt"
)

// ErrGatewayTimeout indicates the model call exceeded the caller-supplied deadline.
var ErrGatewayTimeout = errors.New("model gateway timeout")

// ErrUnknownDomain indicates a request with a domain outside the known set.
var ErrUnknownDomain = errors.New("unknown analysis domain")

// MissingFieldError names the first required field missing from a request.
// Field order is fixed per domain, so the same broken payload always
// reports the same field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// GatewayError is an upstream model failure: transport error, non-2xx
// status, or a response body without generated text.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model gateway error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("model gateway error: %s", e.Message)
}

// PersistenceError wraps a result-store write failure. The model call
// already succeeded at this point; the caller may resubmit.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to store analysis result: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
