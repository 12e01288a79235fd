package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, level)
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })
	return &buf
}

func TestCompactHandlerFormat(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	New("bc.factory").Warn("no conceptual domain target", "vertex", "1JXQ", "label", "Result (C70856)")

	line := buf.String()
	if !strings.HasPrefix(line, "[WARN]  ") {
		t.Errorf("missing level prefix: %q", line)
	}
	if !strings.Contains(line, "[bc.factory] no conceptual domain target |") {
		t.Errorf("component tag not in front of message: %q", line)
	}
	if !strings.Contains(line, `label="Result (C70856)"`) {
		t.Errorf("label not quoted: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component printed twice: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	Debug("hidden")
	Trace("hidden too")
	Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug output leaked at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info output missing: %q", out)
	}
}

func TestTraceLevel(t *testing.T) {
	buf := captureLogs(t, LevelTrace)

	New("cxl").Trace("parsed concept", "id", "1JXQ")

	if !strings.HasPrefix(buf.String(), "[TRACE] ") {
		t.Errorf("trace level not printed: %q", buf.String())
	}
}

func TestWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, nil)
	l := slog.New(h).With("run", 3).WithGroup("bc")

	l.Info("extracted", "qualifiers", 4)

	out := buf.String()
	// Attributes added before the group stay outside it
	if !strings.Contains(out, "| run=3 bc.qualifiers=4") {
		t.Errorf("unexpected attrs: %q", out)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"error", 0, slog.LevelError},
		{"trace", 0, LevelTrace},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.name, tt.count); got != tt.want {
			t.Errorf("LevelFromVerbosity(%q, %d) = %v, want %v", tt.name, tt.count, got, tt.want)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no concept"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/concept", nil)
	req.Header.Set(RequestIDHeader, "abcdef0123456789")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abcdef0123456789" {
		t.Errorf("request id not propagated: %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, "api request failed") || !strings.Contains(out, "status=404") {
		t.Errorf("failure not logged: %q", out)
	}
	if !strings.Contains(out, "req=abcdef01") || !strings.Contains(out, "bytes=10") {
		t.Errorf("unexpected request log: %q", out)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	captureLogs(t, slog.LevelWarn)

	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("expected a generated uuid, got %q", rec.Header().Get(RequestIDHeader))
	}
}
