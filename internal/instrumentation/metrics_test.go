package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailed bool) (*Provider, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if provider.Metrics() == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	return provider, ctx
}

func TestMetrics_RecordRun(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	// Should not panic
	provider.Metrics().RecordRun(ctx, StatusSuccess, 3*time.Second)
	provider.Metrics().RecordRun(ctx, StatusError, 100*time.Millisecond)
}

func TestMetrics_RecordMessage(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	tests := []struct {
		result   string
		category string
	}{
		{ResultProcessed, "💰 Banking / Payments"},
		{ResultFailed, "🪪 Misc / General"},
		{ResultSkipped, ""},
	}

	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			// Should not panic
			provider.Metrics().RecordMessage(ctx, tt.result, tt.category)
		})
	}
}

func TestMetrics_RecordNotification(t *testing.T) {
	t.Run("default labels", func(t *testing.T) {
		provider, ctx := newTestProvider(t, false)
		provider.Metrics().RecordNotification(ctx, "webhook", StatusSuccess, "Jane <jane@example.com>", 200*time.Millisecond)
		provider.Metrics().RecordNotification(ctx, "twilio", StatusError, "", time.Second)
	})

	t.Run("detailed labels", func(t *testing.T) {
		provider, ctx := newTestProvider(t, true)
		provider.Metrics().RecordNotification(ctx, "signal", StatusSuccess, "alerts@bank.example", 50*time.Millisecond)
	})
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	tests := []struct {
		operation string
		status    string
	}{
		{OperationList, StatusSuccess},
		{OperationGet, StatusSuccess},
		{OperationGet, StatusError},
		{OperationModify, StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.operation+"_"+tt.status, func(t *testing.T) {
			provider.Metrics().RecordGoogleAPIOperation(ctx, ServiceGmail, tt.operation, tt.status, 150*time.Millisecond)
		})
	}
}

func TestMetrics_RecordOAuth(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordOAuthAuth(ctx, OAuthResultSuccess)
	provider.Metrics().RecordOAuthAuth(ctx, OAuthResultCached)
	provider.Metrics().RecordOAuthAuth(ctx, OAuthResultFailure)
	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordToolInvocation(ctx, "inbox_check", StatusSuccess, 2*time.Second)
	provider.Metrics().RecordToolInvocation(ctx, "inbox_classify", StatusError, time.Millisecond)
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	// Uninitialized metrics should not panic
	for _, m := range []*Metrics{nil, {}} {
		m.RecordRun(ctx, StatusSuccess, time.Second)
		m.RecordMessage(ctx, ResultProcessed, "x")
		m.RecordNotification(ctx, "webhook", StatusSuccess, "a@b.c", time.Second)
		m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusSuccess, time.Second)
		m.RecordOAuthAuth(ctx, OAuthResultSuccess)
		m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
		m.RecordToolInvocation(ctx, "inbox_check", StatusSuccess, time.Second)
	}
}
