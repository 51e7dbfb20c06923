package event

import (
	"context"
	"sync"
)

// Notification topics published while entries move through the emulator.
const (
	TopicEntryReceived    = "entry.received"
	TopicHandlerSucceeded = "handler.succeeded"
	TopicHandlerFailed    = "handler.failed"
	TopicEntryUnmatched   = "entry.unmatched"
)

// Notification is the payload published on every topic.
type Notification struct {
	EventID   string
	HandlerID string
	Attempts  int
	Err       error
}

// Handler is a function that handles a notification.
type Handler func(ctx context.Context, n Notification)

// Publisher is what the dispatch path needs from a notification bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, n Notification)
}

// Bus is an in-process publish-subscribe bus for dispatch notifications.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
	}
}

// Subscribe adds a handler for a topic.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish runs every handler subscribed to topic in its own goroutine.
func (b *Bus) Publish(ctx context.Context, topic string, n Notification) {
	b.mu.RLock()
	handlers := append([]Handler{}, b.subscribers[topic]...)
	b.mu.RUnlock()
	for _, handler := range handlers {
		go handler(ctx, n)
	}
}

// Stats counts notifications per topic.
type Stats struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewStats subscribes a counter to every dispatch topic of b.
func NewStats(b *Bus) *Stats {
	s := &Stats{counts: map[string]int{}}
	for _, topic := range []string{TopicEntryReceived, TopicHandlerSucceeded, TopicHandlerFailed, TopicEntryUnmatched} {
		topic := topic
		b.Subscribe(topic, func(context.Context, Notification) {
			s.mu.Lock()
			s.counts[topic]++
			s.mu.Unlock()
		})
	}
	return s
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
