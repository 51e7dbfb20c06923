package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/server/api"
)

var validate = validator.New()

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}

// Unwrap lets api.StatusFor map validation failures to 400.
func (e *ValidationError) Unwrap() error { return api.ErrBadRequest }

// TestEventPatternRequest mirrors the upstream TestEventPattern input. Both
// fields may be JSON documents or strings holding JSON.
type TestEventPatternRequest struct {
	Event        json.RawMessage `json:"Event"`
	EventPattern json.RawMessage `json:"EventPattern"`
}

// ParsePutEvents decodes and validates a PutEvents body. When defaultBus is
// set, entries without an EventBusName get it.
func ParsePutEvents(r *http.Request, defaultBus string) (*event.PutEventsRequest, error) {
	var req event.PutEventsRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if err := validate.Var(req.Entries, "min=1"); err != nil {
		return nil, &ValidationError{Field: "Entries", Reason: "at least one entry is required"}
	}

	if defaultBus == "" {
		return &req, nil
	}
	for i := range req.Entries {
		if strings.TrimSpace(req.Entries[i].EventBusName) == "" {
			req.Entries[i].EventBusName = defaultBus
		}
	}
	return &req, nil
}

// ParseTestEventPattern decodes the event and pattern of a test request.
func ParseTestEventPattern(r *http.Request) (doc any, eventPattern map[string]any, err error) {
	var req TestEventPatternRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, nil, err
	}

	if err := decodeDocument(req.Event, &doc); err != nil || doc == nil {
		return nil, nil, &ValidationError{Field: "Event", Reason: "must be a JSON object"}
	}
	if err := decodeDocument(req.EventPattern, &eventPattern); err != nil || eventPattern == nil {
		return nil, nil, &ValidationError{Field: "EventPattern", Reason: "must be a JSON object"}
	}
	return doc, eventPattern, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()}
	}
	return nil
}

// decodeDocument accepts either an embedded JSON value or a string carrying one.
func decodeDocument(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("missing")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = json.RawMessage(text)
	}
	return json.Unmarshal(raw, dst)
}
