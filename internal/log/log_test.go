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
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_StampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Output: &buf, JSON: true, Component: ComponentLedger})

	logger.Info("one")
	logger.WithComponent(ComponentAuth).Warn("two", "k", "v")
	logger.Debug("three", FieldComponent, "explicit")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 records, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentLedger {
		t.Errorf("first component = %v", lines[0][FieldComponent])
	}
	if lines[1][FieldComponent] != ComponentAuth || lines[1]["k"] != "v" {
		t.Errorf("second record = %v", lines[1])
	}
	if lines[2][FieldComponent] != "explicit" {
		t.Errorf("explicit component overridden: %v", lines[2])
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf, JSON: true})
	logger.Info("hidden")
	logger.Error("shown")
	if lines := decodeLines(t, &buf); len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("unexpected records %v", lines)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, JSON: true, Component: ComponentHTTP})

	h := Middleware(logger)(RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get("X-Request-ID")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("X-Request-ID", "abc123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "abc123" {
		t.Fatalf("expected request id in record, got %v", lines)
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}

func TestStructuredLogger_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, JSON: true}))
	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)

	sl.LogHTTPEnd(context.Background(), req, "/api/session", 200, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, "/api/session", 401, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, "/api/session", 500, 3, "10.0.0.1")
	sl.LogAuth(context.Background(), OpLogin, "alice", errors.New("bad password"))

	lines := decodeLines(t, &buf)
	want := []string{"INFO", "WARN", "ERROR", "WARN"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(lines))
	}
	for i, lvl := range want {
		if lines[i]["level"] != lvl {
			t.Errorf("record %d level = %v, want %s", i, lines[i]["level"], lvl)
		}
	}
	if lines[1][FieldSuccess] != false || lines[1][FieldRoute] != "/api/session" {
		t.Errorf("unexpected fields %v", lines[1])
	}
	if lines[3][FieldErrorType] != ErrorTypeAuth || lines[3][FieldUsername] != "alice" {
		t.Errorf("unexpected auth record %v", lines[3])
	}
}
