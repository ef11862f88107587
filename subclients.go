package logrpc

import (
	"context"
	"sync/atomic"
	"time"

	"cloud.google.com/go/logging/apiv2/loggingpb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/vyrodovalexey/logrpc/internal/breaker"
	"github.com/vyrodovalexey/logrpc/internal/rpcmetrics"
)

// Narrow views of the generated service clients, one per service area. The
// generated loggingpb clients satisfy them; tests substitute fakes.

type sinkAPI interface {
	CreateSink(ctx context.Context, req *loggingpb.CreateSinkRequest, opts ...grpc.CallOption) (*loggingpb.LogSink, error)
	UpdateSink(ctx context.Context, req *loggingpb.UpdateSinkRequest, opts ...grpc.CallOption) (*loggingpb.LogSink, error)
	GetSink(ctx context.Context, req *loggingpb.GetSinkRequest, opts ...grpc.CallOption) (*loggingpb.LogSink, error)
	ListSinks(ctx context.Context, req *loggingpb.ListSinksRequest, opts ...grpc.CallOption) (*loggingpb.ListSinksResponse, error)
	DeleteSink(ctx context.Context, req *loggingpb.DeleteSinkRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type entryAPI interface {
	DeleteLog(ctx context.Context, req *loggingpb.DeleteLogRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	WriteLogEntries(ctx context.Context, req *loggingpb.WriteLogEntriesRequest, opts ...grpc.CallOption) (*loggingpb.WriteLogEntriesResponse, error)
	ListLogEntries(ctx context.Context, req *loggingpb.ListLogEntriesRequest, opts ...grpc.CallOption) (*loggingpb.ListLogEntriesResponse, error)
	ListMonitoredResourceDescriptors(ctx context.Context, req *loggingpb.ListMonitoredResourceDescriptorsRequest, opts ...grpc.CallOption) (*loggingpb.ListMonitoredResourceDescriptorsResponse, error)
}

type metricAPI interface {
	CreateLogMetric(ctx context.Context, req *loggingpb.CreateLogMetricRequest, opts ...grpc.CallOption) (*loggingpb.LogMetric, error)
	UpdateLogMetric(ctx context.Context, req *loggingpb.UpdateLogMetricRequest, opts ...grpc.CallOption) (*loggingpb.LogMetric, error)
	GetLogMetric(ctx context.Context, req *loggingpb.GetLogMetricRequest, opts ...grpc.CallOption) (*loggingpb.LogMetric, error)
	ListLogMetrics(ctx context.Context, req *loggingpb.ListLogMetricsRequest, opts ...grpc.CallOption) (*loggingpb.ListLogMetricsResponse, error)
	DeleteLogMetric(ctx context.Context, req *loggingpb.DeleteLogMetricRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

// subClient is the shared piece of every sub-client wrapper: the breaker, the
// service label for metrics, and a once-only close flag.
type subClient struct {
	name    string
	breaker *breaker.Breaker
	logger  *zap.Logger
	closed  atomic.Bool
}

// Close marks the sub-client closed. Subsequent calls are no-ops; issued
// operations fail with ErrClientClosed.
func (s *subClient) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Debug("sub-client closed", zap.String("service", s.name))
	return nil
}

// invoke routes one call through the breaker and records its outcome.
func invoke[T any](s *subClient, method string, fn func() (T, error)) (T, error) {
	var zero T
	if s.closed.Load() {
		return zero, ErrClientClosed
	}
	start := time.Now()
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	rpcmetrics.Record(s.name, method, err, time.Since(start))
	if err != nil {
		return zero, err
	}
	out, _ := res.(T)
	return out, nil
}

// sinkClient fronts the sink configuration service.
type sinkClient struct {
	subClient
	api sinkAPI
}

func newSinkClient(api sinkAPI, b *breaker.Breaker, logger *zap.Logger) *sinkClient {
	return &sinkClient{subClient: subClient{name: "config", breaker: b, logger: logger}, api: api}
}

func (c *sinkClient) createSink(ctx context.Context, req *loggingpb.CreateSinkRequest) (*loggingpb.LogSink, error) {
	return invoke(&c.subClient, "CreateSink", func() (*loggingpb.LogSink, error) {
		return c.api.CreateSink(ctx, req)
	})
}

func (c *sinkClient) updateSink(ctx context.Context, req *loggingpb.UpdateSinkRequest) (*loggingpb.LogSink, error) {
	return invoke(&c.subClient, "UpdateSink", func() (*loggingpb.LogSink, error) {
		return c.api.UpdateSink(ctx, req)
	})
}

func (c *sinkClient) getSink(ctx context.Context, req *loggingpb.GetSinkRequest) (*loggingpb.LogSink, error) {
	return invoke(&c.subClient, "GetSink", func() (*loggingpb.LogSink, error) {
		return c.api.GetSink(ctx, req)
	})
}

func (c *sinkClient) listSinks(ctx context.Context, req *loggingpb.ListSinksRequest) (*loggingpb.ListSinksResponse, error) {
	return invoke(&c.subClient, "ListSinks", func() (*loggingpb.ListSinksResponse, error) {
		return c.api.ListSinks(ctx, req)
	})
}

func (c *sinkClient) deleteSink(ctx context.Context, req *loggingpb.DeleteSinkRequest) (*emptypb.Empty, error) {
	return invoke(&c.subClient, "DeleteSink", func() (*emptypb.Empty, error) {
		return c.api.DeleteSink(ctx, req)
	})
}

// entryClient fronts the log-entry service. Writes optionally pass a
// client-side rate limiter before reaching the channel.
type entryClient struct {
	subClient
	api     entryAPI
	limiter *rate.Limiter
}

func newEntryClient(api entryAPI, b *breaker.Breaker, limiter *rate.Limiter, logger *zap.Logger) *entryClient {
	return &entryClient{
		subClient: subClient{name: "logging", breaker: b, logger: logger},
		api:       api,
		limiter:   limiter,
	}
}

func (c *entryClient) deleteLog(ctx context.Context, req *loggingpb.DeleteLogRequest) (*emptypb.Empty, error) {
	return invoke(&c.subClient, "DeleteLog", func() (*emptypb.Empty, error) {
		return c.api.DeleteLog(ctx, req)
	})
}

func (c *entryClient) writeLogEntries(ctx context.Context, req *loggingpb.WriteLogEntriesRequest) (*loggingpb.WriteLogEntriesResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return invoke(&c.subClient, "WriteLogEntries", func() (*loggingpb.WriteLogEntriesResponse, error) {
		return c.api.WriteLogEntries(ctx, req)
	})
}

func (c *entryClient) listLogEntries(ctx context.Context, req *loggingpb.ListLogEntriesRequest) (*loggingpb.ListLogEntriesResponse, error) {
	return invoke(&c.subClient, "ListLogEntries", func() (*loggingpb.ListLogEntriesResponse, error) {
		return c.api.ListLogEntries(ctx, req)
	})
}

func (c *entryClient) listMonitoredResourceDescriptors(ctx context.Context, req *loggingpb.ListMonitoredResourceDescriptorsRequest) (*loggingpb.ListMonitoredResourceDescriptorsResponse, error) {
	return invoke(&c.subClient, "ListMonitoredResourceDescriptors", func() (*loggingpb.ListMonitoredResourceDescriptorsResponse, error) {
		return c.api.ListMonitoredResourceDescriptors(ctx, req)
	})
}

// metricClient fronts the logs-based metrics service.
type metricClient struct {
	subClient
	api metricAPI
}

func newMetricClient(api metricAPI, b *breaker.Breaker, logger *zap.Logger) *metricClient {
	return &metricClient{subClient: subClient{name: "metrics", breaker: b, logger: logger}, api: api}
}

func (c *metricClient) createLogMetric(ctx context.Context, req *loggingpb.CreateLogMetricRequest) (*loggingpb.LogMetric, error) {
	return invoke(&c.subClient, "CreateLogMetric", func() (*loggingpb.LogMetric, error) {
		return c.api.CreateLogMetric(ctx, req)
	})
}

func (c *metricClient) updateLogMetric(ctx context.Context, req *loggingpb.UpdateLogMetricRequest) (*loggingpb.LogMetric, error) {
	return invoke(&c.subClient, "UpdateLogMetric", func() (*loggingpb.LogMetric, error) {
		return c.api.UpdateLogMetric(ctx, req)
	})
}

func (c *metricClient) getLogMetric(ctx context.Context, req *loggingpb.GetLogMetricRequest) (*loggingpb.LogMetric, error) {
	return invoke(&c.subClient, "GetLogMetric", func() (*loggingpb.LogMetric, error) {
		return c.api.GetLogMetric(ctx, req)
	})
}

func (c *metricClient) listLogMetrics(ctx context.Context, req *loggingpb.ListLogMetricsRequest) (*loggingpb.ListLogMetricsResponse, error) {
	return invoke(&c.subClient, "ListLogMetrics", func() (*loggingpb.ListLogMetricsResponse, error) {
		return c.api.ListLogMetrics(ctx, req)
	})
}

func (c *metricClient) deleteLogMetric(ctx context.Context, req *loggingpb.DeleteLogMetricRequest) (*emptypb.Empty, error) {
	return invoke(&c.subClient, "DeleteLogMetric", func() (*emptypb.Empty, error) {
		return c.api.DeleteLogMetric(ctx, req)
	})
}
