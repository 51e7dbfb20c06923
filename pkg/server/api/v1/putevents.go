package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/dispatch"
	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/server/api"
	"github.com/busmock/busmock/pkg/server/jobs"
)

// PutEventsHandler handles POST on any path, the way the upstream endpoint
// accepts `application/x-amz-json-1.1` requests on its root.
//
// Request format:
//
//	{"Entries": [{"EventBusName": "orders", "Source": "shop", "DetailType": "OrderPlaced", "Detail": "{\"id\":1}"}]}
//
// Response format:
//
//	{"Entries": [{"EventId": "..."}], "FailedEntryCount": 0}
//
// By default the batch is queued and acknowledged right away. With
// SyncDispatch the handler waits and reports each entry's outcome.
func PutEventsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := ParsePutEvents(r, deps.Config.DefaultBus)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		entries := dispatch.AssignIDs(req.Entries)

		if deps.Config.SyncDispatch && deps.Dispatcher != nil {
			ctx := context.WithoutCancel(r.Context())
			if deps.Config.SyncTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deps.Config.SyncTimeout)
				defer cancel()
			}

			resp, err := deps.Dispatcher.Dispatch(ctx, entries)
			if err != nil {
				// Outcomes are already recorded per entry.
				log.Debug().Str("component", "api").Err(err).Int("failed", resp.FailedEntryCount).Msg("Synchronous dispatch reported failures")
			}
			api.WriteJSON(w, http.StatusOK, resp)
			return
		}

		if deps.Jobs == nil {
			api.WriteError(w, r, jobs.ErrNotStarted)
			return
		}

		job := jobs.Job{ID: uuid.NewString(), Entries: entries}
		if err := deps.Jobs.Submit(job); err != nil {
			api.WriteError(w, r, err)
			return
		}

		log.Debug().
			Str("component", "api").
			Str("job_id", job.ID).
			Int("entries", len(entries)).
			Msg("PutEvents batch queued")

		api.WriteJSON(w, http.StatusOK, event.Accepted(entries))
	}
}
