package definition

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/invoke"
	"github.com/busmock/busmock/pkg/schedule"
	"github.com/busmock/busmock/pkg/subscription"
)

// Rejection is a subscription that could not be registered.
type Rejection struct {
	HandlerID string
	Err       error
}

// Plan is everything the emulator needs from a definitions file.
type Plan struct {
	Table         *bus.Table
	Subscriptions []*subscription.Subscription
	Triggers      []*schedule.Trigger
	Rejected      []Rejection
}

// EnabledTriggers returns the triggers whose schedule translated.
func (p *Plan) EnabledTriggers() []*schedule.Trigger {
	var out []*schedule.Trigger
	for _, t := range p.Triggers {
		if t.Enabled() {
			out = append(out, t)
		}
	}
	return out
}

// Build turns the file into subscriptions, triggers and the bus table.
//
// imported is merged over the file's imported-event-buses. Configuration errors
// (unsupported filters, unsupported schedules) only affect the declaring event:
// the plan is always returned and the errors are joined into the second result.
func Build(f *File, imported map[string]string) (*Plan, error) {
	importedBuses := map[string]string{}
	for k, v := range f.ImportedEventBuses {
		importedBuses[k] = v
	}
	for k, v := range imported {
		importedBuses[k] = v
	}

	plan := &Plan{Table: bus.NewTable(f.EventBuses(), importedBuses)}

	var errs []error
	for _, key := range f.FunctionKeys() {
		fn := f.Functions[key]
		for i, ev := range fn.Events {
			eb := ev.EventBridge
			if eb == nil {
				continue
			}
			if !eb.IsEnabled() {
				log.Debug().Str("handler", key).Int("event", i).Msg("EventBridge event disabled, skipping")
				continue
			}

			if eb.Schedule != "" {
				t := schedule.NewTrigger(key, eb.Schedule, eb.Input)
				if !t.Enabled() {
					log.Warn().Err(t.Err).Str("handler", key).Msgf("Invalid schedule syntax '%s', will not schedule", eb.Schedule)
					errs = append(errs, fmt.Errorf("function %s event %d: %w", key, i, t.Err))
				}
				plan.Triggers = append(plan.Triggers, t)
				continue
			}

			sub, err := subscription.New(key, eb.EventBus, eb.Pattern, eb.Input)
			if err != nil {
				log.Warn().Err(err).Str("handler", key).Msg("Subscription rejected")
				plan.Rejected = append(plan.Rejected, Rejection{HandlerID: key, Err: err})
				errs = append(errs, fmt.Errorf("function %s event %d: %w", key, i, err))
				continue
			}
			plan.Subscriptions = append(plan.Subscriptions, sub)
		}
	}

	return plan, errors.Join(errs...)
}

// BuildRouter registers an invoker for every function. defaultTimeout applies
// to HTTP functions that declare none.
func BuildRouter(f *File, defaultTimeout time.Duration) (*invoke.Router, error) {
	r := invoke.NewRouter()
	for _, key := range f.FunctionKeys() {
		fn := f.Functions[key]
		if fn.URL != "" {
			timeout := fn.Timeout
			if timeout == 0 {
				timeout = defaultTimeout
			}
			r.Register(key, invoke.NewHTTPInvoker(fn.URL, timeout))
			continue
		}
		inv, err := invoke.NewCommandInvoker(fn.Command, fn.Dir, fn.Environment)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", key, err)
		}
		r.Register(key, inv)
	}
	return r, nil
}
