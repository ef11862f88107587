package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastPolicy() *Policy {
	return DefaultPolicy().
		WithInitialBackoff(time.Millisecond).
		WithMaxBackoff(2 * time.Millisecond).
		WithJitter(0)
}

// countingInvoker fails n times with err before succeeding.
func countingInvoker(n int, err error, calls *int) grpc.UnaryInvoker {
	return func(context.Context, string, interface{}, interface{}, *grpc.ClientConn, ...grpc.CallOption) error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 10*time.Second, p.MaxBackoff)
	assert.Equal(t, []codes.Code{codes.Unavailable}, p.RetryOn)
}

func TestPolicy_Validate(t *testing.T) {
	p := &Policy{MaxRetries: -1, BackoffFactor: -2, Jitter: 3}
	p.Validate()

	assert.Equal(t, 0, p.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 2.0, p.BackoffFactor)
	assert.Equal(t, 0.1, p.Jitter)
}

func TestPolicy_ShouldRetry(t *testing.T) {
	p := DefaultPolicy()

	assert.True(t, p.ShouldRetry(status.Error(codes.Unavailable, "down")))
	assert.False(t, p.ShouldRetry(status.Error(codes.NotFound, "gone")))
	assert.False(t, p.ShouldRetry(errors.New("local")))
	assert.False(t, p.ShouldRetry(nil))
}

func TestInterceptor_RetriesRetryableCode(t *testing.T) {
	var calls int
	invoker := countingInvoker(2, status.Error(codes.Unavailable, "down"), &calls)

	err := fastPolicy().UnaryClientInterceptor()(context.Background(), "/svc/Method", nil, nil, nil, invoker)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestInterceptor_DoesNotRetryNonRetryableCode(t *testing.T) {
	var calls int
	invoker := countingInvoker(10, status.Error(codes.InvalidArgument, "bad"), &calls)

	err := fastPolicy().UnaryClientInterceptor()(context.Background(), "/svc/Method", nil, nil, nil, invoker)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestInterceptor_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	var calls int
	down := status.Error(codes.Unavailable, "down")
	invoker := countingInvoker(100, down, &calls)

	p := fastPolicy().WithMaxRetries(2)
	err := p.UnaryClientInterceptor()(context.Background(), "/svc/Method", nil, nil, nil, invoker)

	assert.Equal(t, down, err)
	assert.Equal(t, 3, calls)
}

func TestInterceptor_NoRetryPolicy(t *testing.T) {
	var calls int
	invoker := countingInvoker(100, status.Error(codes.Unavailable, "down"), &calls)

	err := NoRetryPolicy().UnaryClientInterceptor()(context.Background(), "/svc/Method", nil, nil, nil, invoker)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestInterceptor_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	invoker := countingInvoker(100, status.Error(codes.Unavailable, "down"), &calls)

	err := fastPolicy().UnaryClientInterceptor()(ctx, "/svc/Method", nil, nil, nil, invoker)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestInterceptor_SuccessPassesThrough(t *testing.T) {
	var calls int
	invoker := countingInvoker(0, nil, &calls)

	err := fastPolicy().UnaryClientInterceptor()(context.Background(), "/svc/Method", nil, nil, nil, invoker)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
