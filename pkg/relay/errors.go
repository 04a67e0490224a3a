package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for the relay package.
var (
	// ErrClientGone indicates the client closed its connection. This is a
	// normal terminal event, not a failure.
	ErrClientGone = errors.New("relay: client disconnected")

	// ErrUpstreamGone indicates the upstream closed its connection.
	ErrUpstreamGone = errors.New("relay: upstream closed connection")

	// ErrClosed indicates an operation on a closed connection or session.
	ErrClosed = errors.New("relay: connection closed")

	// ErrNotFound indicates a registry lookup for an unknown session id.
	ErrNotFound = errors.New("relay: session not found")
)

// ConnectError reports a failure to establish the upstream connection
// (unreachable endpoint, rejected handshake, auth failure). Fatal to the
// session being set up, never to any other session.
type ConnectError struct {
	// Provider names the upstream that rejected the connection.
	Provider string

	// Cause is the underlying dial or handshake error.
	Cause error

	// StatusCode is the HTTP status of a rejected handshake, if any.
	StatusCode int
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay: %s connect failed (status %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("relay: %s connect failed: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// NewConnectError creates a ConnectError.
func NewConnectError(provider string, cause error, statusCode int) *ConnectError {
	return &ConnectError{Provider: provider, Cause: cause, StatusCode: statusCode}
}

// TransportError reports a mid-stream read or write failure on either side
// of an active session. It is terminal for that session only.
type TransportError struct {
	// Side is "client" or "upstream".
	Side string

	// Op is "read" or "write".
	Op string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("relay: %s %s failed: %v", e.Side, e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a TransportError.
func NewTransportError(side, op string, cause error) *TransportError {
	return &TransportError{Side: side, Op: op, Cause: cause}
}

// IsNormalClose reports whether err represents an orderly disconnect rather
// than a genuine transport failure. Both end a session; only the latter is
// worth an error-level log line.
func IsNormalClose(err error) bool {
	return errors.Is(err, ErrClientGone) || errors.Is(err, ErrUpstreamGone) || errors.Is(err, ErrClosed)
}
