// Package rpcmetrics exposes Prometheus metrics for the client call path.
package rpcmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// RequestsTotal counts sub-client calls by service, method and outcome code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logrpc_requests_total",
			Help: "Total number of RPCs issued by the logging client",
		},
		[]string{"service", "method", "code"},
	)

	// RequestDuration observes sub-client call latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logrpc_request_duration_seconds",
			Help:    "Latency of RPCs issued by the logging client",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)
)

// Record records one finished call.
func Record(service, method string, err error, elapsed time.Duration) {
	code := codes.OK
	if err != nil {
		st, ok := status.FromError(err)
		if ok {
			code = st.Code()
		} else {
			code = codes.Unknown
		}
	}
	RequestsTotal.WithLabelValues(service, method, code.String()).Inc()
	RequestDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}
