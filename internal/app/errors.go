package app

import (
	"errors"
	"fmt"
)

var errEmptyPayload = errors.New("empty payload")

// ErrTransport represents a failed round trip to the query engine: network
// failures, timeouts and responses that could not be decoded.
type ErrTransport struct {
	Op    string
	Cause error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *ErrTransport) Unwrap() error {
	return e.Cause
}

// ErrServer represents an error reported by the engine in its payload.
type ErrServer struct {
	Op      string
	Message string
}

func (e *ErrServer) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: engine reported an error", e.Op)
	}
	return e.Message
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}
