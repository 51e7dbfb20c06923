package v1

import (
	"net/http"
	"sync/atomic"
)

// HealthzHandler responds 200 while the process is alive. It checks nothing
// else; use /readyz to know whether PutEvents is accepted.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadyzHandler returns 200 when server is ready, 503 otherwise.
//
// The flag is raised once the listener, the dispatch workers and the
// scheduler are running, and lowered first on shutdown.
func ReadyzHandler(ready *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))
	}
}
