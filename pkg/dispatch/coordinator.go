// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package dispatch matches published entries against the registered
// subscriptions and invokes every matching handler with bounded, fixed-delay
// retry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/subscription"
)

// ErrorCodeInternalFailure is recorded on entries whose handlers ran out of
// attempts.
const ErrorCodeInternalFailure = "InternalFailure"

// Invoker runs one handler with one envelope. Any returned error is retried.
type Invoker interface {
	Invoke(ctx context.Context, handlerID string, envelope map[string]any) error
}

// Matcher selects the subscriptions an entry fires.
type Matcher interface {
	Match(entry event.Entry) []*subscription.Subscription
	Subscribed(sub *subscription.Subscription, entry event.Entry) bool
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithPublisher sends dispatch notifications to p.
func WithPublisher(p event.Publisher) Option {
	return func(c *Coordinator) { c.events = p }
}

// WithClock overrides the time source used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator fans entries out to matching handlers.
type Coordinator struct {
	cfg     Config
	matcher Matcher
	invoker Invoker
	events  event.Publisher
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCoordinator validates cfg and returns a Coordinator.
func NewCoordinator(cfg Config, matcher Matcher, invoker Invoker, logger zerolog.Logger, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatch config: %w", err)
	}
	if matcher == nil || invoker == nil {
		return nil, errors.New("dispatch: matcher and invoker are required")
	}
	c := &Coordinator{
		cfg:     cfg,
		matcher: matcher,
		invoker: invoker,
		logger:  logger.With().Str("component", "dispatch").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the coordinator's configuration.
func (c *Coordinator) Config() Config { return c.cfg }

// Dispatch invokes every subscription matching each entry and waits for all of
// them. Entries without an ID get one.
//
// Each (entry, subscription) pair is isolated: a failing handler never affects
// its siblings. When a handler exhausts its attempts the entry is recorded as
// failed and, if ThrowRetryExhausted is set, the joined *RetryExhaustedError
// values are returned together with the response.
func (c *Coordinator) Dispatch(ctx context.Context, entries []event.Entry) (event.PutEventsResponse, error) {
	entries = AssignIDs(entries)
	resp := event.Accepted(entries)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i, entry := range entries {
		c.publish(ctx, event.TopicEntryReceived, event.Notification{EventID: entry.ID})

		matched := c.matcher.Match(entry)
		if len(matched) == 0 {
			c.logger.Debug().Str("event_id", entry.ID).Str("bus", entry.EventBusName).Msg("No subscriber for entry")
			c.publish(ctx, event.TopicEntryUnmatched, event.Notification{EventID: entry.ID})
			continue
		}

		for _, sub := range matched {
			wg.Add(1)
			go func(i int, entry event.Entry, sub *subscription.Subscription) {
				defer wg.Done()
				err := c.deliver(ctx, sub, entry)
				if err == nil {
					return
				}

				mu.Lock()
				defer mu.Unlock()
				errs = append(errs, err)
				if !resp.Entries[i].Failed() {
					resp.Entries[i].ErrorCode = ErrorCodeInternalFailure
					resp.Entries[i].ErrorMessage = err.Error()
					resp.FailedEntryCount++
				}
			}(i, entry, sub)
		}
	}

	wg.Wait()

	if len(errs) > 0 && c.cfg.ThrowRetryExhausted {
		return resp, errors.Join(errs...)
	}
	return resp, nil
}

// DispatchTo delivers entry to one subscription, after checking that the
// subscription matches it.
func (c *Coordinator) DispatchTo(ctx context.Context, sub *subscription.Subscription, entry event.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if !c.matcher.Subscribed(sub, entry) {
		c.publish(ctx, event.TopicEntryUnmatched, event.Notification{EventID: entry.ID, HandlerID: sub.HandlerID})
		return nil
	}

	err := c.deliver(ctx, sub, entry)
	if err != nil && !c.cfg.ThrowRetryExhausted {
		return nil
	}
	return err
}

func (c *Coordinator) deliver(ctx context.Context, sub *subscription.Subscription, entry event.Entry) error {
	envelope := BuildEnvelope(entry, sub.Input, c.cfg, c.now())
	logger := c.logger.With().Str("handler", sub.HandlerID).Str("event_id", entry.ID).Logger()

	attempts, err := withRetry(ctx, c.cfg.MaxAttempts, c.cfg.Delay, func(ctx context.Context, attempt int) error {
		err := c.invoker.Invoke(ctx, sub.HandlerID, envelope)
		if err != nil && attempt < c.cfg.MaxAttempts {
			logger.Debug().Err(err).Int("attempt", attempt).Msgf("Error occurred in %s on %d/%d, will retry", sub.HandlerID, attempt, c.cfg.MaxAttempts)
		}
		return err
	})

	if err != nil {
		logger.Warn().Err(err).Int("attempt", attempts).Msg("Max attempts reached")
		c.publish(ctx, event.TopicHandlerFailed, event.Notification{EventID: entry.ID, HandlerID: sub.HandlerID, Attempts: attempts, Err: err})
		return &RetryExhaustedError{HandlerID: sub.HandlerID, EventID: entry.ID, Attempts: attempts, Err: err}
	}

	logger.Debug().Int("attempt", attempts).Msgf("%s successfully processed event with id %s", sub.HandlerID, entry.ID)
	c.publish(ctx, event.TopicHandlerSucceeded, event.Notification{EventID: entry.ID, HandlerID: sub.HandlerID, Attempts: attempts})
	return nil
}

func (c *Coordinator) publish(ctx context.Context, topic string, n event.Notification) {
	if c.events != nil {
		c.events.Publish(ctx, topic, n)
	}
}

// AssignIDs returns a copy of entries where every entry has an ID.
func AssignIDs(entries []event.Entry) []event.Entry {
	out := make([]event.Entry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		out[i] = e
	}
	return out
}
