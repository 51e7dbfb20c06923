package subscription

import (
	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/event"
)

// Registry is the immutable set of subscriptions known at startup.
type Registry struct {
	subs     []*Subscription
	resolver *bus.Resolver
}

// NewRegistry returns a Registry over subs. The slice is copied.
func NewRegistry(resolver *bus.Resolver, subs ...*Subscription) *Registry {
	return &Registry{
		subs:     append([]*Subscription(nil), subs...),
		resolver: resolver,
	}
}

// Match returns the subscriptions that fire for entry, in registration order.
func (r *Registry) Match(entry event.Entry) []*Subscription {
	var matched []*Subscription
	for _, sub := range r.subs {
		if IsSubscribed(sub, entry, r.resolver) {
			matched = append(matched, sub)
		}
	}
	return matched
}

// Subscribed reports whether one specific subscription fires for entry, using
// the registry's resolver.
func (r *Registry) Subscribed(sub *Subscription, entry event.Entry) bool {
	return IsSubscribed(sub, entry, r.resolver)
}

// All returns every registered subscription.
func (r *Registry) All() []*Subscription {
	return append([]*Subscription(nil), r.subs...)
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int { return len(r.subs) }
