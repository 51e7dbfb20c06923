// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/subscription"
)

// Trigger is a schedule declared by a function. A trigger whose expression
// failed to translate is kept with Err set and never runs.
type Trigger struct {
	HandlerID  string
	Expression string
	Cron       string
	Input      map[string]any
	Err        error

	sub *subscription.Subscription
}

// NewTrigger translates expr for handlerID. Translation failures are recorded
// on the trigger, not returned.
func NewTrigger(handlerID, expr string, input map[string]any) *Trigger {
	t := &Trigger{HandlerID: handlerID, Expression: expr, Input: input}
	t.Cron, t.Err = Translate(expr)

	sub, err := subscription.New(handlerID, nil, map[string]any{
		subscription.KeySource: []any{Source(handlerID)},
	}, input)
	if err != nil && t.Err == nil {
		t.Err = err
	}
	t.sub = sub
	return t
}

// Enabled reports whether the trigger can be scheduled.
func (t *Trigger) Enabled() bool { return t.Err == nil }

// Subscription returns the subscription that receives this trigger's entries.
// It only matches the trigger's own synthetic source.
func (t *Trigger) Subscription() *subscription.Subscription { return t.sub }

// Entry builds a fresh synthetic entry for one tick.
func (t *Trigger) Entry() event.Entry {
	src := Source(t.HandlerID)
	return event.Entry{
		Source:    src,
		Detail:    fmt.Sprintf(`{"name":%q}`, src),
		Resources: []string{},
		ID:        uuid.NewString(),
	}
}

// Source is the synthetic source used for a handler's scheduled entries.
func Source(handlerID string) string {
	return "Scheduled function " + handlerID
}
