package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentView, Output: &buf})

	logger.Info("loaded", FieldMonth, "2024-03")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if rec[FieldComponent] != ComponentView || rec[FieldMonth] != "2024-03" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestLogErrorAddsCategory(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Component: ComponentInvoice, Output: &buf})

	logger.LogError(context.Background(), "generate failed", errors.New("timeout"),
		ErrorTypeNetwork, OpGenerate, NewFields().WithRequestID("r-1"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if rec[FieldErrorType] != ErrorTypeNetwork || rec[FieldOperation] != OpGenerate || rec[FieldRequestID] != "r-1" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	logger := New(Config{Component: ComponentApp, Output: &bytes.Buffer{}})

	var got *Logger
	h := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http component logger, got %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("fallback logger should be unknown")
	}
}
