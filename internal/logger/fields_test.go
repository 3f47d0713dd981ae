package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  resume  ", Value: "  cv.pdf  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "resume" || fields[0].String != "cv.pdf" {
		t.Fatalf("unexpected resume field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestRequestFields(t *testing.T) {
	fields := RequestFields("http://localhost:5000/analyze", "", " cv.pdf ")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldEndpoint || fields[0].String != "http://localhost:5000/analyze" {
		t.Fatalf("unexpected endpoint field: %+v", fields[0])
	}

	if fields[1].Key != FieldResume || fields[1].String != "cv.pdf" {
		t.Fatalf("unexpected resume field: %+v", fields[1])
	}
}

func TestWithRequestFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	WithRequestFields(logger, "http://srv/analyze", "req-1", "cv.txt").Debug("submitting")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldRequestID] != "req-1" {
		t.Fatalf("expected request id req-1, got %q", ctx[FieldRequestID])
	}
	if ctx[FieldResume] != "cv.txt" {
		t.Fatalf("expected resume cv.txt, got %q", ctx[FieldResume])
	}

	WithRequestFields(nil, "", "", "").Info("no panic")
}
