// Package logrpc provides an asynchronous client façade over the three gRPC
// service areas of the cloud logging API: sink configuration
// (ConfigServiceV2), log-entry ingestion and query (LoggingServiceV2), and
// logs-based metrics (MetricsServiceV2).
//
// A Client owns one shared channel, one executor pool, and three sub-clients.
// Every operation is non-blocking: it returns a Future that resolves to a
// value, an explicit absent outcome, or an error. Remote-status failures are
// wrapped in *RPCError; operations that treat NOT_FOUND as a legitimate empty
// state (get and delete by identifier) resolve to absent instead of failing.
//
// Construction decides the transport once: targets on localhost, or an
// explicit credentials.NoCredentials marker, get a plaintext channel; anything
// else resolves a bearer token from the configured credential provider and
// dials with TLS. Close is idempotent and releases sub-clients, background
// resources, and the executor pool in that order.
package logrpc
