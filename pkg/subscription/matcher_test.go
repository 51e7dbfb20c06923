package subscription

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/pattern"
)

func mustPattern(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func newSub(t *testing.T, eventBus any, rawPattern string) *Subscription {
	t.Helper()
	var p map[string]any
	if rawPattern != "" {
		p = mustPattern(t, rawPattern)
	}
	sub, err := New("fn", eventBus, p, nil)
	require.NoError(t, err)
	return sub
}

func TestIsSubscribed_NoChecksAlwaysFires(t *testing.T) {
	sub := newSub(t, nil, "")
	require.False(t, sub.HasPattern())

	entries := []event.Entry{
		{},
		{EventBusName: "orders", Source: "shop", DetailType: "OrderPlaced", Detail: `{"id":1}`},
		{EventBusName: "anything", Detail: `not json`},
	}
	for _, e := range entries {
		require.True(t, IsSubscribed(sub, e, bus.NewResolver(nil)))
	}
}

func TestIsSubscribed(t *testing.T) {
	resolver := bus.NewResolver(bus.NewTable(map[string]string{"OrdersBus": "orders"}, nil))

	tests := []struct {
		name     string
		eventBus any
		pattern  string
		entry    event.Entry
		want     bool
	}{
		{
			name:    "source list",
			pattern: `{"source":["shop","billing"]}`,
			entry:   event.Entry{Source: "billing"},
			want:    true,
		},
		{
			name:    "source mismatch",
			pattern: `{"source":["shop"]}`,
			entry:   event.Entry{Source: "billing"},
			want:    false,
		},
		{
			name:    "source missing on entry",
			pattern: `{"source":["shop"]}`,
			entry:   event.Entry{},
			want:    false,
		},
		{
			name:    "detail-type skipped when entry has none",
			pattern: `{"detail-type":["OrderPlaced"]}`,
			entry:   event.Entry{Source: "shop"},
			want:    true,
		},
		{
			name:    "detail-type prefix",
			pattern: `{"detail-type":[{"prefix":"Order"}]}`,
			entry:   event.Entry{DetailType: "OrderShipped"},
			want:    true,
		},
		{
			name:    "detail match",
			pattern: `{"detail":{"x":[1]}}`,
			entry:   event.Entry{Detail: `{"x":1}`},
			want:    true,
		},
		{
			name:    "detail mismatch",
			pattern: `{"detail":{"x":[1]}}`,
			entry:   event.Entry{Detail: `{"x":2}`},
			want:    false,
		},
		{
			name:    "detail skipped when entry has none",
			pattern: `{"detail":{"x":[1]}}`,
			entry:   event.Entry{Source: "shop"},
			want:    true,
		},
		{
			name:    "unparseable detail falls back to raw entry",
			pattern: `{"detail":{"Source":["shop"]}}`,
			entry:   event.Entry{Source: "shop", Detail: `{broken`},
			want:    true,
		},
		{
			name:    "unparseable detail without raw match",
			pattern: `{"detail":{"x":[1]}}`,
			entry:   event.Entry{Detail: `{broken`},
			want:    false,
		},
		{
			name:     "bus literal containment",
			eventBus: "orders",
			entry:    event.Entry{EventBusName: "orders-prod"},
			want:     true,
		},
		{
			name:     "bus mismatch",
			eventBus: "orders",
			entry:    event.Entry{EventBusName: "billing"},
			want:     false,
		},
		{
			name:     "bus check skipped when entry has no bus",
			eventBus: "orders",
			entry:    event.Entry{Source: "shop"},
			want:     true,
		},
		{
			name:     "bus by logical id",
			eventBus: map[string]any{"Ref": "OrdersBus"},
			pattern:  `{"source":["shop"]}`,
			entry:    event.Entry{EventBusName: "orders", Source: "shop"},
			want:     true,
		},
		{
			name:     "unresolvable import",
			eventBus: map[string]any{"Fn::ImportValue": "missing"},
			entry:    event.Entry{EventBusName: "orders"},
			want:     false,
		},
		{
			name:    "all checks anded",
			pattern: `{"source":["shop"],"detail-type":["OrderPlaced"],"detail":{"total":[{"numeric":[">",10]}]}}`,
			entry:   event.Entry{Source: "shop", DetailType: "OrderPlaced", Detail: `{"total":5}`},
			want:    false,
		},
		{
			name:    "or in detail",
			pattern: `{"detail":{"$or":[{"a":[1]},{"b":[2]}]}}`,
			entry:   event.Entry{Detail: `{"a":1,"b":99}`},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newSub(t, tt.eventBus, tt.pattern)
			require.Equal(t, tt.want, IsSubscribed(sub, tt.entry, resolver))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("fn", nil, mustPattern(t, `{"detail":{"ip":[{"cidr":"10.0.0.0/8"}]}}`), nil)
	var unsupported *pattern.UnsupportedFilterError
	require.True(t, errors.As(err, &unsupported))
	require.Equal(t, "cidr", unsupported.Operator)
	require.Contains(t, err.Error(), "fn: pattern.detail")

	_, err = New("fn", nil, mustPattern(t, `{"detail":["x"]}`), nil)
	require.ErrorIs(t, err, pattern.ErrInvalidPattern)

	_, err = New("fn", nil, mustPattern(t, `{"source":[{"exists":"yes"}]}`), nil)
	require.ErrorIs(t, err, pattern.ErrInvalidPattern)
}

func TestRegistry_Match(t *testing.T) {
	shop := newSub(t, nil, `{"source":["shop"]}`)
	shop.HandlerID = "shop"
	billing := newSub(t, nil, `{"source":["billing"]}`)
	billing.HandlerID = "billing"
	catchAll := newSub(t, nil, "")
	catchAll.HandlerID = "all"

	reg := NewRegistry(bus.NewResolver(nil), shop, billing, catchAll)
	require.Equal(t, 3, reg.Len())

	matched := reg.Match(event.Entry{Source: "shop"})
	require.Len(t, matched, 2)
	require.Equal(t, "shop", matched[0].HandlerID)
	require.Equal(t, "all", matched[1].HandlerID)

	require.True(t, reg.Subscribed(billing, event.Entry{Source: "billing"}))
	require.Len(t, reg.All(), 3)
}
