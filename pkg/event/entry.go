// Package event holds the publish-side data model (entries and the PutEvents
// request/response shapes) and a small in-process notification bus.
package event

import (
	"encoding/json"
	"fmt"
)

// Entry is one record of a PutEvents call. Field names follow the upstream API.
type Entry struct {
	EventBusName string   `json:"EventBusName,omitempty"`
	Source       string   `json:"Source,omitempty"`
	DetailType   string   `json:"DetailType,omitempty"`
	Detail       string   `json:"Detail,omitempty"`
	Resources    []string `json:"Resources,omitempty"`
	Time         string   `json:"Time,omitempty"`

	// ID is assigned on receipt and reused as the envelope id.
	ID string `json:"-"`
}

// ParseDetail decodes the JSON detail payload. An empty detail is reported as
// not present.
func (e Entry) ParseDetail() (any, bool, error) {
	if e.Detail == "" {
		return nil, false, nil
	}
	var detail any
	if err := json.Unmarshal([]byte(e.Detail), &detail); err != nil {
		return nil, true, fmt.Errorf("parse detail: %w", err)
	}
	return detail, true, nil
}

// Raw returns the entry as a generic JSON object, the shape used when the detail
// cannot be parsed and the entry itself stands in for the event.
func (e Entry) Raw() map[string]any {
	raw := map[string]any{}
	if e.EventBusName != "" {
		raw["EventBusName"] = e.EventBusName
	}
	if e.Source != "" {
		raw["Source"] = e.Source
	}
	if e.DetailType != "" {
		raw["DetailType"] = e.DetailType
	}
	if e.Detail != "" {
		raw["Detail"] = e.Detail
	}
	if e.Time != "" {
		raw["Time"] = e.Time
	}
	if len(e.Resources) > 0 {
		resources := make([]any, 0, len(e.Resources))
		for _, r := range e.Resources {
			resources = append(resources, r)
		}
		raw["Resources"] = resources
	}
	return raw
}

// PutEventsRequest is the body accepted by the ingress endpoint.
type PutEventsRequest struct {
	Entries []Entry `json:"Entries"`
}

// ResultEntry is the per-entry outcome of a PutEvents call.
type ResultEntry struct {
	EventID      string `json:"EventId,omitempty"`
	ErrorCode    string `json:"ErrorCode,omitempty"`
	ErrorMessage string `json:"ErrorMessage,omitempty"`
}

// Failed reports whether the entry ended with an error.
func (r ResultEntry) Failed() bool { return r.ErrorCode != "" }

// PutEventsResponse mirrors the upstream PutEvents response.
type PutEventsResponse struct {
	Entries          []ResultEntry `json:"Entries"`
	FailedEntryCount int           `json:"FailedEntryCount"`
}

// Accepted builds a response acknowledging every entry by id.
func Accepted(entries []Entry) PutEventsResponse {
	resp := PutEventsResponse{Entries: make([]ResultEntry, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = ResultEntry{EventID: e.ID}
	}
	return resp
}
