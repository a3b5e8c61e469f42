package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"tutorbill/internal/config"
	"tutorbill/internal/log"
)

func TestSetupLoggerUsesConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "warn", LogFormat: "json"}
	logger := setupLogger(cfg, log.ComponentWorker, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec[log.FieldComponent] != log.ComponentWorker {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestIgnoreCanceled(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"canceled", context.Canceled, nil},
		{"wrapped canceled", fmt.Errorf("consume: %w", context.Canceled), nil},
		{"other", boom, boom},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IgnoreCanceled(tt.in); got != tt.want {
				t.Fatalf("IgnoreCanceled(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
