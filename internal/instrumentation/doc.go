// Package instrumentation provides OpenTelemetry instrumentation for inboxalert.
//
// A poll run is short-lived, so metrics are normally pushed to a Prometheus
// Pushgateway when the run finishes (PUSHGATEWAY_URL). The long-running
// serve mode exposes the same registry on /metrics instead.
//
// # Metrics
//
// Run Metrics:
//   - inboxalert_runs_total: Counter of poll runs by status
//   - inboxalert_run_duration_seconds: Histogram of run durations
//
// Message Metrics:
//   - inboxalert_messages_total: Counter of messages by result and category
//   - inboxalert_notifications_total: Counter of notification attempts by channel and status
//   - inboxalert_notification_duration_seconds: Histogram of delivery durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Gmail operations by operation and status
//   - google_api_operation_duration_seconds: Histogram of Gmail operation durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of authentication attempts by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for each run, each message, each Gmail call
// (google.gmail.<operation>) and each notification (notify.<channel>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - PUSHGATEWAY_URL / PUSHGATEWAY_JOB: Pushgateway target for run metrics
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_PII: delivery audit log
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, "gmail", "list", "success", time.Since(start))
//	if err := provider.Push(ctx); err != nil {
//		slog.Warn("metrics push failed", logging.Err(err))
//	}
package instrumentation
