// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package dispatch

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/event"
)

// BuildEnvelope reconstructs the event a handler receives for entry.
//
// The static input of the subscription is copied first and the envelope fields
// are written over it. When the detail is missing or is not JSON the raw entry
// plus an id is returned instead, without the input.
func BuildEnvelope(entry event.Entry, input map[string]any, cfg Config, now time.Time) map[string]any {
	detail, ok, err := entry.ParseDetail()
	if err != nil || !ok {
		if err != nil {
			log.Debug().Err(err).Str("event_id", entry.ID).Msg("Error converting entry to event, returning entry instead")
		}
		raw := entry.Raw()
		raw["id"] = entry.ID
		return raw
	}

	envelope := make(map[string]any, len(input)+9)
	for k, v := range input {
		envelope[k] = v
	}

	ts := entry.Time
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339)
	}

	resources := make([]any, 0, len(entry.Resources))
	for _, r := range entry.Resources {
		resources = append(resources, r)
	}

	envelope["version"] = "0"
	envelope["id"] = entry.ID
	envelope["source"] = entry.Source
	envelope["account"] = cfg.Account
	envelope["time"] = ts
	envelope["region"] = cfg.Region
	envelope["resources"] = resources
	envelope["detail"] = detail
	if entry.DetailType != "" {
		envelope["detail-type"] = entry.DetailType
	}
	return envelope
}
