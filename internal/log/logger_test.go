package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payoff/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func jsonLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Output: buf})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return rec
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := jsonLogger(&buf).With("session_id", "s1")

	engineLog := base.WithComponent(ComponentEngine)
	if engineLog.Component() != ComponentEngine {
		t.Fatalf("component = %q", engineLog.Component())
	}
	engineLog.Info("hello")

	rec := lastRecord(t, &buf)
	if rec[FieldComponent] != ComponentEngine {
		t.Errorf("component attr = %v", rec[FieldComponent])
	}
	if rec["session_id"] != "s1" {
		t.Error("attributes of the parent logger should be kept")
	}
}

func TestMiddleware_StoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	h := Middleware(logger, func(r *http.Request) string { return r.Header.Get("X-Request-ID") })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if rec := lastRecord(t, &buf); rec[FieldRequestID] != "abc" {
		t.Fatalf("request id not attached: %v", rec)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected default logger, got %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf))
	ctx := context.Background()

	t.Run("http levels", func(t *testing.T) {
		tests := []struct {
			status int
			level  string
		}{
			{200, "INFO"},
			{404, "WARN"},
			{503, "ERROR"},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate?format=csv", nil)
			sl.LogHTTPEnd(ctx, req, tt.status, 12, "10.0.0.1")
			rec := lastRecord(t, &buf)
			if rec["level"] != tt.level || rec[FieldSuccess] != (tt.status < 400) || rec[FieldQuery] != "format=csv" {
				t.Errorf("status %d logged as %v", tt.status, rec)
			}
		}
	})

	t.Run("run outcome", func(t *testing.T) {
		sl.LogRun(ctx, 2, core.Summary{Strategy: core.Strategy{Kind: core.Snowball}, Converged: true, Months: 17})
		if rec := lastRecord(t, &buf); rec["level"] != "INFO" || rec[FieldMonths] != float64(17) {
			t.Errorf("unexpected run record %v", rec)
		}

		sl.LogRun(ctx, 1, core.Summary{NonConvergence: &core.NonConvergence{Reason: core.ReasonHorizon}})
		if rec := lastRecord(t, &buf); rec["level"] != "WARN" || rec[FieldReason] != core.ReasonHorizon {
			t.Errorf("unexpected non-convergence record %v", rec)
		}
	})

	t.Run("error", func(t *testing.T) {
		sl.LogError(ctx, "export failed", errors.New("quota"), OpExport, nil)
		rec := lastRecord(t, &buf)
		if rec[FieldError] != "quota" || rec[FieldOperation] != OpExport {
			t.Errorf("unexpected error record %v", rec)
		}
	})
}
