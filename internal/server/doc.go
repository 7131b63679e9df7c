// Package server holds the shared state of the long-running serve mode and
// the HTTP endpoints it exposes next to the MCP stdio transport.
//
// # Key Components
//
// ServerContext carries the classifier, default run options and the function
// performing one inbox pass. It allows a single pass at a time and forces
// dry-run mode unless write operations were enabled.
//
// MetricsServer serves Prometheus metrics from the instrumentation provider's
// registry on a dedicated port together with the HealthChecker probes:
//   - /metrics: Prometheus exposition format
//   - /healthz: liveness
//   - /readyz: readiness (fails once the server context shuts down)
//   - /healthz/detailed: status and uptime
package server
