package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAnnotatesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), DatasetKey, "flows")
	ctx = context.WithValue(ctx, ColumnKey, "proto")

	WithContext(ctx, base).Info("built")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["dataset"] != "flows" {
		t.Errorf("dataset field = %v, want flows", fields["dataset"])
	}
	if fields["column"] != "proto" {
		t.Errorf("column field = %v, want proto", fields["column"])
	}
}

func TestWithContextWithoutKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	WithContext(context.Background(), base).Info("plain")

	if fields := logs.All()[0].ContextMap(); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}
}

func TestWithContextNilBase(t *testing.T) {
	if WithContext(context.Background(), nil) == nil {
		t.Fatal("nil base must fall back to the global logger")
	}
}
