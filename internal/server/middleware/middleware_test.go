package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		if id == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if respID == "" {
		t.Error("expected X-Request-ID in response header")
	}
	// UUID v7 format check: 36 chars with dashes
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != clientID {
			t.Errorf("request ID in context = %q, want %q", got, clientID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != clientID {
		t.Errorf("X-Request-ID = %q, want %q", got, clientID)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Logger middleware tests
// ---------------------------------------------------------------------------

func TestLoggerCapturesStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest("GET", "/teapot", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	out := buf.String()
	if !strings.Contains(out, `"path":"/teapot"`) {
		t.Errorf("log output missing path: %s", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("log output missing status: %s", out)
	}
	// 4xx logs at warn level.
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("log output level: %s", out)
	}
}

func TestLoggerDefaultsTo200(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("log output missing implicit 200: %s", buf.String())
	}
}

func TestResponseWriterCountsBytes(t *testing.T) {
	rr := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rr, status: http.StatusOK}

	ww.Write([]byte("hello"))
	ww.Write([]byte(" world"))

	if ww.bytes != 11 {
		t.Errorf("bytes = %d, want 11", ww.bytes)
	}
	if ww.status != http.StatusOK {
		t.Errorf("status = %d", ww.status)
	}
}

// ---------------------------------------------------------------------------
// RateLimit middleware tests
// ---------------------------------------------------------------------------

func TestRateLimitEnforced(t *testing.T) {
	handler := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		last = rr.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}
