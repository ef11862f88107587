package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/logrpc/credentials"
	"github.com/vyrodovalexey/logrpc/executor"
)

// trackingProvider records resolutions and can fail on demand.
type trackingProvider struct {
	token string
	err   error
	calls atomic.Int32
}

func (p *trackingProvider) Token(context.Context) (string, error) {
	p.calls.Add(1)
	return p.token, p.err
}

func (p *trackingProvider) Insecure() bool { return false }

func TestIsLocalTarget(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"localhost:50051", true},
		{"localhost", true},
		{"svc.localhost:8080", true},
		{"127.0.0.1:50051", true},
		{"[::1]:50051", true},
		{"dns:///localhost:50051", true},
		{"logging.example.com:443", false},
		{"dns:///logging.example.com:443", false},
		{"10.0.0.5:443", false},
		{"localhost.example.com:443", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocalTarget(tt.target))
		})
	}
}

func TestProvision_LocalTargetBuildsPlaintext(t *testing.T) {
	provider := &trackingProvider{token: "tok"}
	pool := executor.NewPool(1)

	tctx, err := Provision(context.Background(), Config{
		Target:      "localhost:50051",
		Credentials: provider,
	}, pool, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, tctx.CloseResources()) }()

	assert.True(t, tctx.Plaintext)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Same(t, pool, tctx.Pool)
}

func TestProvision_NoCredentialsMarkerBuildsPlaintext(t *testing.T) {
	pool := executor.NewPool(1)

	tctx, err := Provision(context.Background(), Config{
		Target:      "logging.example.com:443",
		Credentials: credentials.NoCredentials{},
	}, pool, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, tctx.CloseResources()) }()

	assert.True(t, tctx.Plaintext)
}

func TestProvision_SecureTargetResolvesCredentials(t *testing.T) {
	provider := &trackingProvider{token: "tok"}
	pool := executor.NewPool(1)

	tctx, err := Provision(context.Background(), Config{
		Target:      "logging.example.com:443",
		Credentials: provider,
	}, pool, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, tctx.CloseResources()) }()

	assert.False(t, tctx.Plaintext)
	assert.Equal(t, int32(1), provider.calls.Load())
	// The channel itself is registered for teardown.
	assert.Len(t, tctx.Resources(), 1)
}

func TestProvision_CredentialFailure(t *testing.T) {
	provider := &trackingProvider{err: errors.New("vault sealed")}
	pool := executor.NewPool(1)

	_, err := Provision(context.Background(), Config{
		Target:      "logging.example.com:443",
		Credentials: provider,
	}, pool, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve credentials")
}

func TestProvision_BadTLSMaterial(t *testing.T) {
	pool := executor.NewPool(1)

	_, err := Provision(context.Background(), Config{
		Target:      "logging.example.com:443",
		Credentials: &trackingProvider{token: "tok"},
		TLS:         &credentials.TLSConfig{CAFile: "/does/not/exist.pem"},
	}, pool, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
}

func TestProvision_MissingInputs(t *testing.T) {
	pool := executor.NewPool(1)

	_, err := Provision(context.Background(), Config{Credentials: credentials.NoCredentials{}}, pool, nil)
	assert.Error(t, err)

	_, err = Provision(context.Background(), Config{Target: "localhost:1"}, pool, nil)
	assert.Error(t, err)
}

// flakyCloser fails its first close.
type flakyCloser struct {
	closes atomic.Int32
	err    error
}

func (c *flakyCloser) Close() error {
	c.closes.Add(1)
	return c.err
}

func TestContext_CloseResourcesAttemptsAllAndReportsFirstError(t *testing.T) {
	boom := errors.New("close failed")
	first := &flakyCloser{err: boom}
	second := &flakyCloser{}

	tctx := NewContext(nil, nil, true, first, second)

	err := tctx.CloseResources()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), first.closes.Load())
	assert.Equal(t, int32(1), second.closes.Load())
}
