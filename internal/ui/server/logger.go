package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/api"
)

// withHTTPLogging logs one entry per request and propagates the request id,
// reusing the id the page runtime sent when present.
func withHTTPLogging(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(api.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(api.RequestIDHeader, requestID)
		}
		w.Header().Set(api.RequestIDHeader, requestID)
		r = r.WithContext(logx.ContextWithRequestID(r.Context(), requestID))

		lrw := newLoggingResponseWriter(w)
		next.ServeHTTP(lrw, r)

		status := lrw.StatusCode()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", requestTarget(r)).
			Str("remote", r.RemoteAddr).
			Int("status", status).
			Int("bytes", lrw.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.written += n
	return n, err
}

func (lrw *loggingResponseWriter) StatusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

func (lrw *loggingResponseWriter) BytesWritten() int {
	return lrw.written
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func requestTarget(r *http.Request) string {
	if r == nil || r.URL == nil {
		return "/"
	}
	if uri := r.URL.RequestURI(); uri != "" {
		return uri
	}
	if path := r.URL.Path; path != "" {
		return path
	}
	return "/"
}
