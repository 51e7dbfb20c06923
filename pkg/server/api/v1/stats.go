package v1

import (
	"net/http"

	"github.com/busmock/busmock/pkg/server/api"
	"github.com/busmock/busmock/pkg/server/jobs"
	"github.com/busmock/busmock/pkg/version"
)

// StatsResponse is returned by GET /_busmock/stats.
type StatsResponse struct {
	Subscriptions int            `json:"subscriptions"`
	Events        map[string]int `json:"events"`
	Queue         *jobs.Status   `json:"queue,omitempty"`
	Version       version.Struct `json:"version"`
}

// StatsHandler reports dispatch counters and queue state.
func StatsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Subscriptions: deps.Subscriptions,
			Events:        map[string]int{},
			Version:       version.Get(),
		}
		if deps.Stats != nil {
			resp.Events = deps.Stats.Snapshot()
		}
		if deps.Jobs != nil {
			status := deps.Jobs.Status()
			resp.Queue = &status
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
