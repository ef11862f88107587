// Package credentials defines the credential sources the client can dial
// with: an explicit no-credentials marker for plaintext channels, static
// bearer tokens, and a HashiCorp Vault backed provider.
package credentials

import (
	"context"
	"errors"
)

// ErrEmptyToken is returned when a provider resolves to an empty token.
var ErrEmptyToken = errors.New("credential provider returned an empty token")

// Provider resolves the bearer token attached to every RPC on a secure
// channel. Providers must be safe for concurrent use.
type Provider interface {
	// Token returns the bearer token.
	Token(ctx context.Context) (string, error)

	// Insecure reports whether this provider is the explicit no-credentials
	// marker. Insecure providers are never asked for a token.
	Insecure() bool
}

// NoCredentials is the explicit marker that forces an insecure plaintext
// channel. It is distinct from leaving credentials unset by accident: the
// caller states the intent.
type NoCredentials struct{}

// Token implements Provider. It is never called on the dial path and always
// fails, so a misrouted secure dial surfaces immediately.
func (NoCredentials) Token(context.Context) (string, error) {
	return "", errors.New("no credentials configured")
}

// Insecure implements Provider.
func (NoCredentials) Insecure() bool { return true }

// StaticToken is a Provider backed by a fixed bearer token.
type StaticToken struct {
	Value string
}

// Token implements Provider.
func (s StaticToken) Token(context.Context) (string, error) {
	if s.Value == "" {
		return "", ErrEmptyToken
	}
	return s.Value, nil
}

// Insecure implements Provider.
func (s StaticToken) Insecure() bool { return false }
