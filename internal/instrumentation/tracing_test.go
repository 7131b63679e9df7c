package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs a recording tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})

	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("inbox_check").
		WithService("gmail").
		WithOperation("get").
		WithMessageID("18c2f0").
		WithCategory("🧾 Offers / Details").
		WithChannel("webhook").
		WithDryRun(true).
		Build()

	if len(attrs) != 7 {
		t.Errorf("expected 7 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	expected := map[string]interface{}{
		SpanAttrTool:      "inbox_check",
		SpanAttrService:   "gmail",
		SpanAttrOperation: "get",
		SpanAttrMessageID: "18c2f0",
		SpanAttrCategory:  "🧾 Offers / Details",
		SpanAttrChannel:   "webhook",
		SpanAttrDryRun:    true,
	}
	for key, want := range expected {
		if attrMap[key] != want {
			t.Errorf("attribute %s = %v, want %v", key, attrMap[key], want)
		}
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithMessageID("").
		WithCategory("").
		WithChannel("").
		Build()

	// Only tool should be present
	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only tool), got %d", len(attrs))
	}
}

func TestStartSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "inboxalert.run")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "inboxalert.run" {
		t.Errorf("expected span name 'inboxalert.run', got %q", spans[0].Name())
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartToolSpan(context.Background(), "inbox_check")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "tool.inbox_check" {
		t.Errorf("expected span name 'tool.inbox_check', got %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("expected server span kind, got %v", spans[0].SpanKind())
	}
}

func TestStartGoogleAPISpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceGmail, OperationModify)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "google.gmail.modify" {
		t.Errorf("expected span name 'google.gmail.modify', got %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindClient {
		t.Errorf("expected client span kind, got %v", spans[0].SpanKind())
	}
}

func TestStartNotifySpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartNotifySpan(context.Background(), "twilio", "abc")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "notify.twilio" {
		t.Errorf("expected span name 'notify.twilio', got %q", spans[0].Name())
	}
	if len(spans[0].Attributes()) != 2 {
		t.Errorf("expected 2 attributes, got %d", len(spans[0].Attributes()))
	}
}

func TestSetSpanError(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "failing")
	SetSpanError(span, errors.New("boom"))
	span.End()

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status().Code)
	}
	if got.Status().Description != "boom" {
		t.Errorf("expected description 'boom', got %q", got.Status().Description)
	}
}

func TestSetSpanError_Nil(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "ok")
	SetSpanError(span, nil)
	span.End()

	if code := recorder.Ended()[0].Status().Code; code != codes.Unset {
		t.Errorf("expected unset status for nil error, got %v", code)
	}
}

func TestSetSpanSuccess(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "ok")
	SetSpanSuccess(span)
	span.End()

	if code := recorder.Ended()[0].Status().Code; code != codes.Ok {
		t.Errorf("expected ok status, got %v", code)
	}
}

func TestAddSpanEvent(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "events")
	AddSpanEvent(span, "message.skipped")
	span.End()

	events := recorder.Ended()[0].Events()
	if len(events) != 1 || events[0].Name != "message.skipped" {
		t.Errorf("expected one 'message.skipped' event, got %+v", events)
	}
}

func TestGetTraceID(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID without span, got %q", id)
	}
	if id := GetSpanID(context.Background()); id != "" {
		t.Errorf("expected empty span ID without span, got %q", id)
	}

	recordSpans(t)
	ctx, span := StartSpan(context.Background(), "with-ids")
	defer span.End()

	if len(GetTraceID(ctx)) != 32 {
		t.Errorf("expected 32-char trace ID, got %q", GetTraceID(ctx))
	}
	if len(GetSpanID(ctx)) != 16 {
		t.Errorf("expected 16-char span ID, got %q", GetSpanID(ctx))
	}
}
