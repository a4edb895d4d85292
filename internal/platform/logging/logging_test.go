package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	if err != nil {
		t.Fatalf("parse empty level: %v", err)
	}
	if level.Level() != zapcore.InfoLevel {
		t.Fatalf("level = %s, want info", level.Level())
	}

	level, err = ParseLevel("debug")
	if err != nil {
		t.Fatalf("parse debug: %v", err)
	}
	if level.Level() != zapcore.DebugLevel {
		t.Fatalf("level = %s, want debug", level.Level())
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	if _, err := New("nope", "homechain"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewBuildsLogger(t *testing.T) {
	logger, err := New("warn", "homechain")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error must be enabled at warn level")
	}
}

func TestWithTraceAddsSpanContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithTrace(ctx, logger).Info("processed")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != traceID.String() {
		t.Fatalf("trace_id = %v, want %s", fields["trace_id"], traceID)
	}
	if fields["span_id"] != spanID.String() {
		t.Fatalf("span_id = %v, want %s", fields["span_id"], spanID)
	}
}

func TestWithTraceWithoutSpan(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithTrace(context.Background(), logger).Info("plain")

	if _, ok := logs.All()[0].ContextMap()["trace_id"]; ok {
		t.Fatal("did not expect trace_id without span")
	}
	if WithTrace(context.Background(), nil) == nil {
		t.Fatal("expected nop logger for nil input")
	}
}

func TestPrintf(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logf := Printf(zap.New(core))
	logf("waiting for %s", "health")
	if got := logs.All()[0].Message; got != "waiting for health" {
		t.Fatalf("message = %q", got)
	}
	if Printf(nil) != nil {
		t.Fatal("expected nil func for nil logger")
	}
}
