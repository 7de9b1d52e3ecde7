package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	logger, buf := bufferLogger()
	mw := NewRequestLoggingMiddleware(logger)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/slots", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "kanva-web/1.0")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{"method=POST", "path=/api/slots", "status=201", "ip=203.0.113.9", "kanva-web/1.0", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request ID response header")
	}
}

func TestRequestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger, buf := bufferLogger()
	h := NewRequestLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request ID abc-123, got %q", got)
	}
	if !strings.Contains(buf.String(), "request_id=abc-123") {
		t.Errorf("expected request ID in log: %s", buf.String())
	}
}

func TestRequestLoggingMiddleware_ServerErrorsAreWarnings(t *testing.T) {
	logger, buf := bufferLogger()
	h := NewRequestLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/credits", nil))

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected WARN level for 503: %s", buf.String())
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	logger, buf := bufferLogger()
	h := NewRequestLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/billing/success?session_id=cs_live_123&access_token=eyJ&tab=plan", nil))

	out := buf.String()
	if strings.Contains(out, "cs_live_123") || strings.Contains(out, "eyJ") {
		t.Errorf("log leaks sensitive values: %s", out)
	}
	if !strings.Contains(out, "tab=plan") {
		t.Errorf("expected harmless params to be kept: %s", out)
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		logger, buf := bufferLogger()
		h := NewRequestLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

		if buf.Len() != 0 {
			t.Errorf("expected %s not to be logged, got %s", path, buf.String())
		}
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/api/me", "", "/api/me"},
		{"/x", "token=abc", "/x?token=[REDACTED]"},
		{"/x", "Key=abc&page=2", "/x?Key=[REDACTED]&page=2"},
		{"/x", "flag", "/x"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.path, tt.query); got != tt.want {
			t.Errorf("sanitizePath(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
		}
	}
}
