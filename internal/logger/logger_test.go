package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
	}{
		{"prod", "", false},
		{"local", "debug", false},
		{"docker", "warn", false},
		{"staging", "", true},
		{"local", "loud", true},
	}
	for _, tc := range tests {
		l, err := NewLogger(tc.env, tc.level)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NewLogger(%q, %q) expected error", tc.env, tc.level)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewLogger(%q, %q): %v", tc.env, tc.level, err)
			continue
		}
		_ = l.Sync()
	}
}

func TestFromContext_NopFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger, got nil")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("request_id", "abc"))
	FromContext(ctx).Info("query")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "abc" {
		t.Errorf("request_id = %v", got)
	}
}
