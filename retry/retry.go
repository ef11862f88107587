// Package retry provides the single retry policy the client applies
// uniformly, as a gRPC unary interceptor, to every method of every
// sub-client.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Policy defines the retry policy configuration. One Policy instance is
// broadcast across all sub-client methods; there is no per-operation tuning.
type Policy struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0 to 1.0).
	Jitter float64

	// RetryOn lists the status codes that trigger a retry.
	RetryOn []codes.Code

	// Logger for logging retry attempts.
	Logger *zap.Logger
}

// DefaultPolicy returns a Policy with default values. Only Unavailable is
// retried by default; anything else is either a caller mistake or must be
// decided above this layer.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryOn:        []codes.Code{codes.Unavailable},
	}
}

// Validate validates and normalizes the policy.
func (p *Policy) Validate() {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0.1
	}
}

// ShouldRetry reports whether err carries a status code in RetryOn.
func (p *Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	for _, code := range p.RetryOn {
		if st.Code() == code {
			return true
		}
	}
	return false
}

// UnaryClientInterceptor returns the interceptor that applies this policy to
// every unary method on the channel it is installed on.
func (p *Policy) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		p.Validate()
		backoff := NewExponentialBackoff(p.InitialBackoff, p.MaxBackoff, p.BackoffFactor, p.Jitter)

		var lastErr error
		for attempt := 0; attempt <= p.MaxRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			lastErr = invoker(ctx, method, req, reply, cc, opts...)
			if lastErr == nil || !p.ShouldRetry(lastErr) {
				return lastErr
			}
			if attempt == p.MaxRetries {
				break
			}

			wait := backoff.Next(attempt)
			if p.Logger != nil {
				p.Logger.Debug("retrying call",
					zap.String("method", method),
					zap.Int("attempt", attempt+1),
					zap.Int("max_retries", p.MaxRetries),
					zap.Duration("wait", wait),
					zap.Error(lastErr),
				)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		return lastErr
	}
}

// WithMaxRetries sets the maximum retries.
func (p *Policy) WithMaxRetries(n int) *Policy {
	p.MaxRetries = n
	return p
}

// WithInitialBackoff sets the initial backoff.
func (p *Policy) WithInitialBackoff(d time.Duration) *Policy {
	p.InitialBackoff = d
	return p
}

// WithMaxBackoff sets the maximum backoff.
func (p *Policy) WithMaxBackoff(d time.Duration) *Policy {
	p.MaxBackoff = d
	return p
}

// WithBackoffFactor sets the backoff factor.
func (p *Policy) WithBackoffFactor(f float64) *Policy {
	p.BackoffFactor = f
	return p
}

// WithJitter sets the jitter factor.
func (p *Policy) WithJitter(j float64) *Policy {
	p.Jitter = j
	return p
}

// WithRetryOn sets the retryable status codes.
func (p *Policy) WithRetryOn(codes ...codes.Code) *Policy {
	p.RetryOn = codes
	return p
}

// WithLogger sets the logger.
func (p *Policy) WithLogger(logger *zap.Logger) *Policy {
	p.Logger = logger
	return p
}

// NoRetryPolicy returns a policy that never retries.
func NoRetryPolicy() *Policy {
	return &Policy{MaxRetries: 0}
}
