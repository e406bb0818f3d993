package middleware

import (
	"log"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware logs one key=value line per request. The client ip honors
// X-Forwarded-For so assessment requests behind a proxy stay attributable,
// same resolution the rate limiter uses.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(wrapped, r)

		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = "-"
		}
		log.Printf(
			"method=%s path=%s mode=%s status=%d duration=%s bytes=%d ip=%s",
			r.Method,
			r.URL.Path,
			mode,
			wrapped.statusCode,
			time.Since(start),
			wrapped.written,
			clientIP(r),
		)
	})
}
