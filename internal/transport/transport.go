// Package transport provisions the shared channel the three sub-clients run
// on: plaintext for local targets or the explicit no-credentials marker, TLS
// with per-RPC bearer credentials otherwise.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccreds "google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vyrodovalexey/logrpc/credentials"
	"github.com/vyrodovalexey/logrpc/executor"
	"github.com/vyrodovalexey/logrpc/retry"
)

// Config carries everything Provision needs to build a channel.
type Config struct {
	// Target is the channel target, e.g. "logging.example.com:443" or
	// "localhost:50051".
	Target string

	// Credentials resolves the bearer token on the secure branch. The
	// explicit no-credentials marker forces the plaintext branch.
	Credentials credentials.Provider

	// TLS is the TLS material for the secure branch. Nil means defaults.
	TLS *credentials.TLSConfig

	// Retry is the policy broadcast across every method on the channel.
	Retry *retry.Policy

	// MaxRecvMsgSize and MaxSendMsgSize bound message sizes in bytes.
	MaxRecvMsgSize int
	MaxSendMsgSize int

	// UserAgent is sent with every call.
	UserAgent string
}

// Context is the execution context shared by the sub-clients: the channel,
// the executor pool, and the background resources to release on teardown. It
// is immutable after Provision returns.
type Context struct {
	Conn *grpc.ClientConn
	Pool *executor.Pool

	// Plaintext records which branch was taken.
	Plaintext bool

	resources []io.Closer
}

// NewContext assembles a Context from already-built parts. Provision is the
// production path; this exists so tests can wire fakes.
func NewContext(conn *grpc.ClientConn, pool *executor.Pool, plaintext bool, resources ...io.Closer) *Context {
	return &Context{Conn: conn, Pool: pool, Plaintext: plaintext, resources: resources}
}

// Resources returns the registered background resources.
func (c *Context) Resources() []io.Closer {
	return c.resources
}

// CloseResources closes every background resource. All closers are attempted;
// the first error encountered is returned.
func (c *Context) CloseResources() error {
	var firstErr error
	for _, res := range c.resources {
		if err := res.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Provision builds the execution context. Credential resolution and channel
// construction failures are returned as a single wrapped error; the pool
// passed in stays releasable by the caller either way.
func Provision(ctx context.Context, cfg Config, pool *executor.Pool, logger *zap.Logger) (*Context, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("target is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, grpc.WithUserAgent(cfg.UserAgent))
	}
	if cfg.Retry != nil {
		opts = append(opts, grpc.WithUnaryInterceptor(cfg.Retry.UnaryClientInterceptor()))
	}

	plaintext := IsLocalTarget(cfg.Target) || cfg.Credentials.Insecure()
	if plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		token, err := cfg.Credentials.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve credentials: %w", err)
		}
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
		opts = append(opts,
			grpc.WithTransportCredentials(grpccreds.NewTLS(tlsCfg)),
			grpc.WithPerRPCCredentials(credentials.NewTokenAuth(token)),
		)
	}

	conn, err := grpc.NewClient(cfg.Target, opts...)
	if err != nil {
		return nil, fmt.Errorf("create channel for %s: %w", cfg.Target, err)
	}

	logger.Debug("provisioned channel",
		zap.String("target", cfg.Target),
		zap.Bool("plaintext", plaintext),
	)

	return NewContext(conn, pool, plaintext, conn), nil
}

// IsLocalTarget reports whether target points at a local or loopback
// endpoint. Local targets get a plaintext channel for testing.
func IsLocalTarget(target string) bool {
	host := target
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		host = target[idx+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
