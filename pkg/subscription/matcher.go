package subscription

import (
	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/pattern"
)

// IsSubscribed reports whether sub fires for entry. Checks are ANDed and each one
// is skipped when either side does not declare the field:
//   - bus reference vs entry bus name
//   - source pattern vs entry source
//   - detail-type pattern vs entry detail-type
//   - detail tree vs parsed detail
//
// A detail that is not valid JSON is replaced by the raw entry object.
func IsSubscribed(sub *Subscription, entry event.Entry, resolver *bus.Resolver) bool {
	subscribed := check(sub, entry, resolver)
	verb := "is not"
	if subscribed {
		verb = "is"
	}
	log.Debug().
		Str("handler", sub.HandlerID).
		Str("event_id", entry.ID).
		Msgf("%s %s subscribed", sub.HandlerID, verb)
	return subscribed
}

func check(sub *Subscription, entry event.Entry, resolver *bus.Resolver) bool {
	if sub.Bus.Declared() && entry.EventBusName != "" {
		if resolver == nil || !resolver.Matches(sub.Bus, entry.EventBusName) {
			return false
		}
	}

	if sub.Source != nil && !pattern.Match(fieldValues(entry.Source), *sub.Source) {
		return false
	}

	if entry.DetailType != "" && sub.DetailType != nil &&
		!pattern.Match(fieldValues(entry.DetailType), *sub.DetailType) {
		return false
	}

	if entry.Detail != "" && sub.Detail != nil {
		var target any
		detail, _, err := entry.ParseDetail()
		if err != nil {
			log.Debug().Err(err).Str("event_id", entry.ID).Msg("Detail is not JSON, matching against the raw entry")
			target = entry.Raw()
		} else {
			target = detail
		}
		if !sub.Detail.Match(target) {
			return false
		}
	}

	return true
}

func fieldValues(v string) []any {
	if v == "" {
		return nil
	}
	return []any{v}
}
