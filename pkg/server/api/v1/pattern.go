package v1

import (
	"net/http"

	"github.com/busmock/busmock/pkg/pattern"
	"github.com/busmock/busmock/pkg/server/api"
)

// TestEventPatternResponse mirrors the upstream TestEventPattern output.
type TestEventPatternResponse struct {
	Result bool `json:"Result"`
}

// TestEventPatternHandler handles POST /_busmock/test-event-pattern.
//
// The event is matched as a whole document, so pattern keys are the event's
// own keys (source, detail-type, detail, ...).
func TestEventPatternHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, rawPattern, err := ParseTestEventPattern(r)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		tree, err := pattern.ParseTree(rawPattern)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusOK, TestEventPatternResponse{Result: tree.Match(doc)})
	}
}
