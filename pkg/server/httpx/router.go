package httpx

import (
	"net/http"

	"github.com/busmock/busmock/pkg/server/api"
	v1 "github.com/busmock/busmock/pkg/server/api/v1"
)

// Paths of the emulator's own endpoints. Everything else is PutEvents.
const (
	PathHealthz          = "/healthz"
	PathReadyz           = "/readyz"
	PathTestEventPattern = "/_busmock/test-event-pattern"
	PathStats            = "/_busmock/stats"
)

// NewRouter creates and configures the main HTTP router.
//
// PutEvents is mounted on "POST /" which, with Go 1.22+ patterns, matches any
// path: SDK clients post to the endpoint root, others append a path.
func NewRouter(deps *api.Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+PathHealthz, v1.HealthzHandler)
	mux.HandleFunc("GET "+PathReadyz, v1.ReadyzHandler(deps.Ready))

	mux.HandleFunc("POST "+PathTestEventPattern, v1.TestEventPatternHandler())
	mux.HandleFunc("GET "+PathStats, v1.StatsHandler(deps))

	mux.HandleFunc("POST /", v1.PutEventsHandler(deps))

	return mux
}
