package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceHandlerAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.With("component", "test").InfoContext(ctx, "inside span")
	span.End()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("expected trace_id, got %v", line["trace_id"])
	}
	if line["span_id"] != span.SpanContext().SpanID().String() {
		t.Fatalf("expected span_id, got %v", line["span_id"])
	}
	if line["component"] != "test" {
		t.Fatalf("expected attrs to survive With, got %v", line["component"])
	}
}

func TestTraceHandlerWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("no span")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := line["trace_id"]; ok {
		t.Fatalf("unexpected trace_id without span")
	}
}

func TestSetupDisabled(t *testing.T) {
	for _, opts := range []Options{
		{ServiceName: "noticeboard", Enabled: true},
		{ServiceName: "noticeboard", Endpoint: "stdout", Enabled: false},
	} {
		shutdown, err := Setup(context.Background(), opts)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}
}
