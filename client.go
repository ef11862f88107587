package logrpc

import (
	"context"
	"io"
	"sync/atomic"

	"cloud.google.com/go/logging/apiv2/loggingpb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/vyrodovalexey/logrpc/executor"
	"github.com/vyrodovalexey/logrpc/internal/breaker"
	"github.com/vyrodovalexey/logrpc/internal/transport"
)

// suppression sets, fixed per operation.
var (
	notFound   = []codes.Code{codes.NotFound}
	noSuppress []codes.Code
)

// Client is the asynchronous façade over the three logging service areas. It
// owns one channel, one executor pool, and three sub-clients; all state
// except the closed flag is immutable after New returns.
type Client struct {
	logger  *zap.Logger
	factory executor.Factory
	tctx    *transport.Context

	sinks   *sinkClient
	entries *entryClient
	metrics *metricClient

	closed atomic.Bool
}

// New builds a Client from cfg. Construction is atomic: the executor pool is
// acquired first, then the channel; any failure releases the pool and returns
// a *ConnectError, leaving nothing usable behind.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConnectError{Target: cfg.Target, Cause: err}
	}
	logger := cfg.logger()
	factory := cfg.executorFactory()

	provider, err := cfg.credentialProvider()
	if err != nil {
		return nil, &ConnectError{Target: cfg.Target, Cause: err}
	}

	pool := factory.New()
	tctx, err := transport.Provision(ctx, transport.Config{
		Target:         cfg.Target,
		Credentials:    provider,
		TLS:            cfg.TLS,
		Retry:          cfg.retryPolicy(),
		MaxRecvMsgSize: cfg.MaxRecvMsgSize,
		MaxSendMsgSize: cfg.MaxSendMsgSize,
		UserAgent:      cfg.UserAgent,
	}, pool, logger)
	if err != nil {
		// The pool was already acquired; hand it back before failing.
		_ = factory.Release(pool)
		return nil, &ConnectError{Target: cfg.Target, Cause: err}
	}

	shared := breaker.New(nil, logger)
	var limiter *rate.Limiter
	if cfg.WriteRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WriteRateLimit), cfg.WriteRateBurst)
	}

	return &Client{
		logger:  logger,
		factory: factory,
		tctx:    tctx,
		sinks:   newSinkClient(loggingpb.NewConfigServiceV2Client(tctx.Conn), shared, logger),
		entries: newEntryClient(loggingpb.NewLoggingServiceV2Client(tctx.Conn), shared, limiter, logger),
		metrics: newMetricClient(loggingpb.NewMetricsServiceV2Client(tctx.Conn), shared, logger),
	}, nil
}

// call dispatches fn on the shared pool and resolves the returned future
// through the operation's translation policy.
func call[T any](c *Client, ctx context.Context, idempotent bool, suppress []codes.Code, fn func(context.Context) (T, error)) *Future[T] {
	if c.closed.Load() {
		return failedFuture[T](ErrClientClosed)
	}
	f := newFuture[T]()
	err := c.tctx.Pool.Submit(func() {
		val, err := fn(ctx)
		absent, terr := translateErr(err, idempotent, suppress...)
		if absent || terr != nil {
			var zero T
			f.complete(zero, absent, terr)
			return
		}
		f.complete(val, false, nil)
	})
	if err != nil {
		return failedFuture[T](ErrClientClosed)
	}
	return f
}

// CreateSink creates a sink.
func (c *Client) CreateSink(ctx context.Context, req *loggingpb.CreateSinkRequest) *Future[*loggingpb.LogSink] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.LogSink, error) {
		return c.sinks.createSink(ctx, req)
	})
}

// UpdateSink updates a sink.
func (c *Client) UpdateSink(ctx context.Context, req *loggingpb.UpdateSinkRequest) *Future[*loggingpb.LogSink] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.LogSink, error) {
		return c.sinks.updateSink(ctx, req)
	})
}

// GetSink fetches a sink. A NOT_FOUND outcome resolves to absent rather than
// an error.
func (c *Client) GetSink(ctx context.Context, req *loggingpb.GetSinkRequest) *Future[*loggingpb.LogSink] {
	return call(c, ctx, true, notFound, func(ctx context.Context) (*loggingpb.LogSink, error) {
		return c.sinks.getSink(ctx, req)
	})
}

// ListSinks lists sinks.
func (c *Client) ListSinks(ctx context.Context, req *loggingpb.ListSinksRequest) *Future[*loggingpb.ListSinksResponse] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.ListSinksResponse, error) {
		return c.sinks.listSinks(ctx, req)
	})
}

// DeleteSink deletes a sink. A NOT_FOUND outcome resolves to absent.
func (c *Client) DeleteSink(ctx context.Context, req *loggingpb.DeleteSinkRequest) *Future[*emptypb.Empty] {
	return call(c, ctx, true, notFound, func(ctx context.Context) (*emptypb.Empty, error) {
		return c.sinks.deleteSink(ctx, req)
	})
}

// DeleteLog deletes all entries of a log. A NOT_FOUND outcome resolves to
// absent.
func (c *Client) DeleteLog(ctx context.Context, req *loggingpb.DeleteLogRequest) *Future[*emptypb.Empty] {
	return call(c, ctx, true, notFound, func(ctx context.Context) (*emptypb.Empty, error) {
		return c.entries.deleteLog(ctx, req)
	})
}

// WriteLogEntries writes a batch of log entries. A batch may partially
// succeed on the server, so the call is not treated as idempotent and no
// status code is suppressed.
func (c *Client) WriteLogEntries(ctx context.Context, req *loggingpb.WriteLogEntriesRequest) *Future[*loggingpb.WriteLogEntriesResponse] {
	return call(c, ctx, false, noSuppress, func(ctx context.Context) (*loggingpb.WriteLogEntriesResponse, error) {
		return c.entries.writeLogEntries(ctx, req)
	})
}

// ListLogEntries lists log entries.
func (c *Client) ListLogEntries(ctx context.Context, req *loggingpb.ListLogEntriesRequest) *Future[*loggingpb.ListLogEntriesResponse] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.ListLogEntriesResponse, error) {
		return c.entries.listLogEntries(ctx, req)
	})
}

// ListMonitoredResourceDescriptors lists the monitored resource descriptors
// known to the service.
func (c *Client) ListMonitoredResourceDescriptors(ctx context.Context, req *loggingpb.ListMonitoredResourceDescriptorsRequest) *Future[*loggingpb.ListMonitoredResourceDescriptorsResponse] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.ListMonitoredResourceDescriptorsResponse, error) {
		return c.entries.listMonitoredResourceDescriptors(ctx, req)
	})
}

// CreateLogMetric creates a logs-based metric.
func (c *Client) CreateLogMetric(ctx context.Context, req *loggingpb.CreateLogMetricRequest) *Future[*loggingpb.LogMetric] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.LogMetric, error) {
		return c.metrics.createLogMetric(ctx, req)
	})
}

// UpdateLogMetric updates a logs-based metric.
func (c *Client) UpdateLogMetric(ctx context.Context, req *loggingpb.UpdateLogMetricRequest) *Future[*loggingpb.LogMetric] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.LogMetric, error) {
		return c.metrics.updateLogMetric(ctx, req)
	})
}

// GetLogMetric fetches a logs-based metric. A NOT_FOUND outcome resolves to
// absent.
func (c *Client) GetLogMetric(ctx context.Context, req *loggingpb.GetLogMetricRequest) *Future[*loggingpb.LogMetric] {
	return call(c, ctx, true, notFound, func(ctx context.Context) (*loggingpb.LogMetric, error) {
		return c.metrics.getLogMetric(ctx, req)
	})
}

// ListLogMetrics lists logs-based metrics.
func (c *Client) ListLogMetrics(ctx context.Context, req *loggingpb.ListLogMetricsRequest) *Future[*loggingpb.ListLogMetricsResponse] {
	return call(c, ctx, true, noSuppress, func(ctx context.Context) (*loggingpb.ListLogMetricsResponse, error) {
		return c.metrics.listLogMetrics(ctx, req)
	})
}

// DeleteLogMetric deletes a logs-based metric. A NOT_FOUND outcome resolves
// to absent.
func (c *Client) DeleteLogMetric(ctx context.Context, req *loggingpb.DeleteLogMetricRequest) *Future[*emptypb.Empty] {
	return call(c, ctx, true, notFound, func(ctx context.Context) (*emptypb.Empty, error) {
		return c.metrics.deleteLogMetric(ctx, req)
	})
}

// Close releases the client. It is idempotent and safe for concurrent use:
// exactly one caller performs the teardown, everyone else gets nil. Order:
// sub-clients first, then the background resources on the transport context,
// then the executor pool back to its factory. Every closer is attempted; the
// first error wins.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	for _, cl := range []io.Closer{c.sinks, c.entries, c.metrics} {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.tctx.CloseResources(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.factory.Release(c.tctx.Pool); err != nil && firstErr == nil {
		firstErr = err
	}

	c.logger.Debug("client closed")
	return firstErr
}
