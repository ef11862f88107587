package credentials

import (
	"context"
)

// TokenAuth attaches a resolved bearer token to every RPC as per-RPC
// credentials. The token is resolved once at construction; rotation happens
// by rebuilding the client, the channel is immutable after that.
type TokenAuth struct {
	token string
}

// NewTokenAuth wraps an already-resolved bearer token.
func NewTokenAuth(token string) TokenAuth {
	return TokenAuth{token: token}
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (t TokenAuth) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{
		"authorization": "Bearer " + t.token,
	}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials. Bearer
// tokens must never travel over plaintext.
func (t TokenAuth) RequireTransportSecurity() bool { return true }
