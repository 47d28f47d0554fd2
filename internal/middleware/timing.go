package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// Timing returns a middleware that adds a Server-Timing response
// header, making request latency visible in browser DevTools.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &timingResponseWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(wrapped, r)
	})
}

// timingResponseWriter sets the Server-Timing header just before the
// status line goes out, the last point at which headers can change.
type timingResponseWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		ms := float64(time.Since(w.start).Nanoseconds()) / 1e6
		w.Header().Set("Server-Timing", "total;dur="+strconv.FormatFloat(ms, 'f', 2, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
