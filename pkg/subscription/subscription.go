// Package subscription holds registered handler interests and decides which of
// them an incoming entry fires.
package subscription

import (
	"fmt"

	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/pattern"
)

// Pattern keys understood at the top level of an event pattern.
const (
	KeySource     = "source"
	KeyDetailType = "detail-type"
	KeyDetail     = "detail"
)

// Subscription is one handler's interest in entries. It is built by New and is
// read-only afterwards.
type Subscription struct {
	HandlerID  string
	Bus        bus.Ref
	Source     *pattern.Node
	DetailType *pattern.Node
	Detail     *pattern.Tree
	Input      map[string]any

	// Pattern is the pattern as declared, kept for display.
	Pattern map[string]any
}

// New parses a declared event pattern into a Subscription.
//
// Unsupported operators fail with *pattern.UnsupportedFilterError and malformed
// operator payloads with pattern.ErrInvalidPattern. Either error makes this one
// subscription unusable.
func New(handlerID string, eventBus any, rawPattern map[string]any, input map[string]any) (*Subscription, error) {
	sub := &Subscription{
		HandlerID: handlerID,
		Bus:       bus.ParseRef(eventBus),
		Input:     input,
		Pattern:   rawPattern,
	}

	if raw, ok := rawPattern[KeySource]; ok {
		n, err := pattern.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: pattern.%s: %w", handlerID, KeySource, err)
		}
		sub.Source = &n
	}

	if raw, ok := rawPattern[KeyDetailType]; ok {
		n, err := pattern.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: pattern.%s: %w", handlerID, KeyDetailType, err)
		}
		sub.DetailType = &n
	}

	if raw, ok := rawPattern[KeyDetail]; ok {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: pattern.%s: %w: must be an object, got %T", handlerID, KeyDetail, pattern.ErrInvalidPattern, raw)
		}
		tree, err := pattern.ParseTree(obj)
		if err != nil {
			return nil, fmt.Errorf("%s: pattern.%s: %w", handlerID, KeyDetail, err)
		}
		sub.Detail = tree
	}

	return sub, nil
}

// HasPattern reports whether any pattern check was declared.
func (s *Subscription) HasPattern() bool {
	return s.Source != nil || s.DetailType != nil || s.Detail != nil
}
