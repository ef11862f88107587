package logrpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Common sentinel errors.
var (
	// ErrClientClosed is returned by operations issued after Close.
	ErrClientClosed = errors.New("client is closed")
)

// RPCError wraps a remote-status failure surfaced by one of the sub-clients.
// It carries the original gRPC status code and message so callers can branch
// on the code without unwrapping down to the transport error.
type RPCError struct {
	Code    codes.Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *RPCError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *RPCError) Is(target error) bool {
	t, ok := target.(*RPCError)
	if !ok {
		return errors.Is(e.Cause, target)
	}
	return t.Code == codes.OK || t.Code == e.Code
}

// newRPCError wraps err, which must be a status error.
func newRPCError(st *status.Status, cause error) *RPCError {
	return &RPCError{Code: st.Code(), Message: st.Message(), Cause: cause}
}

// ConnectError represents a construction failure: credential resolution or
// channel setup did not complete. A client that returns a ConnectError is not
// usable, not even partially.
type ConnectError struct {
	Target string
	Cause  error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Target, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConnectError) Is(target error) bool {
	_, ok := target.(*ConnectError)
	return ok || errors.Is(e.Cause, target)
}
