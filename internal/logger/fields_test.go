package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  job_id  ", Value: "  42  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "job_id" || fields[0].String != "42" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	WithFields(log, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	fallback.Info("another log")
}

func TestMatchFields(t *testing.T) {
	fields := MatchFields("42", "a-1")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldJobID || fields[0].String != "42" {
		t.Fatalf("unexpected job field: %+v", fields[0])
	}

	if fields[1].Key != FieldApplicationID || fields[1].String != "a-1" {
		t.Fatalf("unexpected application field: %+v", fields[1])
	}

	if only := MatchFields("42", ""); len(only) != 1 {
		t.Fatalf("expected application field to be omitted, got %d fields", len(only))
	}
}

func TestForJob(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	ForJob(zap.New(core), "42").Debug("batch matching started")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx[FieldJobID] != "42" {
		t.Fatalf("expected job_id 42, got %v", ctx[FieldJobID])
	}
}
