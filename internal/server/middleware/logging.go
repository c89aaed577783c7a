package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns an HTTP middleware that logs every request: method, path,
// status code, response size, duration, request ID, and remote address.
// 4xx responses log at warn, 5xx at error.
func Logger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			var evt *zerolog.Event
			switch {
			case ww.status >= 500:
				evt = logger.Error()
			case ww.status >= 400:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}

			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Float64("duration_ms", float64(duration.Microseconds())/1000.0).
				Int("bytes", ww.bytes).
				Str("request_id", GetRequestID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Msg("request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// bytes written for logging purposes.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter, required for http.Flusher
// and other interface assertions through middleware chains.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
