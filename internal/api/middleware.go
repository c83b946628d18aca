package api

import (
	"log"
	"net/http"
	"time"
)

// responseRecorder captures the status code and payload size a handler
// actually produced, so the access log reflects what the client received.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	// Handlers that never call WriteHeader get the implicit 200.
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n
	return n, err
}

// loggingMiddleware emits one access-log line per request. A simulation run
// executes inside the request, so the duration here is also the run time.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		log.Printf("method=%s path=%s status=%d bytes=%d dur=%dms",
			r.Method, r.URL.RequestURI(), rec.status, rec.size, time.Since(start).Milliseconds())
	})
}
