package api

import (
	"context"
	"sync/atomic"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/server/jobs"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Ready flag for readiness check
	Ready *atomic.Bool

	Config Config

	// Jobs receives accepted batches when dispatch is asynchronous.
	Jobs jobs.Manager

	// Dispatcher runs batches inline when Config.SyncDispatch is set.
	Dispatcher Dispatcher

	// Stats reports notification counters; optional.
	Stats StatsSource

	// Subscriptions is the number of registered subscriptions, for /_busmock/stats.
	Subscriptions int
}

// Dispatcher is the subset of dispatch.Coordinator needed by the API.
type Dispatcher interface {
	Dispatch(ctx context.Context, entries []event.Entry) (event.PutEventsResponse, error)
}

// StatsSource is implemented by event.Stats.
type StatsSource interface {
	Snapshot() map[string]int
}
