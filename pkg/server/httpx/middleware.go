package httpx

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/server/api"
)

// Chain applies middleware in order: Logger → Recovery → CORS → BodyLimit → handler
//
// Every request is logged, even one that panics or exceeds the body limit.
func Chain(cfg api.Config, handler http.Handler) http.Handler {
	return Logger(Recovery(CORS(BodyLimit(cfg.PayloadLimit)(handler))))
}

// Logger logs each HTTP request with method, path, status, and duration.
// Health probes log at debug so they do not drown PutEvents traffic.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		logEvent := log.Info()
		if isHealthEndpoint(r.URL.Path) {
			logEvent = log.Debug()
		}
		logEvent.
			Str("component", "http").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// Recovery catches panics and returns 500 Internal Server Error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("component", "http").
					Interface("error", err).
					Str("path", r.URL.Path).
					Msg("Panic recovered in HTTP handler")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORS allows browser clients on any origin, including the AWS SDK headers.
// Preflight OPTIONS requests are answered directly.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Amz-Target, X-Amz-Date, X-Amz-Security-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BodyLimit rejects bodies larger than limit bytes. Requests announcing a
// larger Content-Length are refused up front; others fail while reading with
// *http.MaxBytesError.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.WriteJSONError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge),
					"request body exceeds "+humanize.Bytes(uint64(limit)))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func isHealthEndpoint(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
