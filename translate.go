package logrpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// translateErr maps the outcome of one sub-client call to the façade's
// uniform result semantics:
//
//   - nil error passes through.
//   - A status error whose code is in suppress resolves to the explicit
//     absent outcome instead of an error.
//   - Any other status error is wrapped in *RPCError.
//   - Errors that do not carry a gRPC status (context cancellation, a
//     released pool, an open circuit breaker) propagate unchanged.
//
// The idempotent flag is threaded through every call site but intentionally
// does not change translation; it is reserved for routing retries at the
// transport layer.
func translateErr(err error, idempotent bool, suppress ...codes.Code) (absent bool, out error) {
	if err == nil {
		return false, nil
	}
	st, ok := statusFromError(err)
	if !ok {
		return false, err
	}
	for _, code := range suppress {
		if st.Code() == code {
			return true, nil
		}
	}
	return false, newRPCError(st, err)
}

// statusFromError reports whether err originated from a remote status. Unlike
// status.FromError it does not promote arbitrary local errors to
// codes.Unknown, so cancellation and other local failures keep their
// identity.
func statusFromError(err error) (*status.Status, bool) {
	type grpcStatus interface {
		GRPCStatus() *status.Status
	}
	for e := err; e != nil; e = unwrapOnce(e) {
		if gs, ok := e.(grpcStatus); ok {
			return gs.GRPCStatus(), true
		}
	}
	return nil, false
}

func unwrapOnce(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
