package proxy

import (
	"net/http"
	"runtime/debug"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// recoveryMiddleware recovers from panics in HTTP handlers and returns a
// plain-text 500 response. The panic is logged with its stack trace but no
// internal detail is exposed to the client.
func recoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "text/plain")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("Internal Server Error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
