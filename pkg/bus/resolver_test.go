package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Ref
	}{
		{name: "absent", raw: nil, want: Ref{Kind: RefNone}},
		{name: "empty string", raw: "", want: Ref{Kind: RefNone}},
		{name: "literal", raw: "orders", want: Ref{Kind: RefLiteral, Value: "orders"}},
		{name: "ref", raw: map[string]any{"Ref": "OrdersBus"}, want: Ref{Kind: RefLogical, Value: "OrdersBus"}},
		{name: "fn ref", raw: map[string]any{"Fn::Ref": "OrdersBus"}, want: Ref{Kind: RefLogical, Value: "OrdersBus"}},
		{name: "getatt list", raw: map[string]any{"Fn::GetAtt": []any{"OrdersBus", "Arn"}}, want: Ref{Kind: RefLogical, Value: "OrdersBus"}},
		{name: "getatt string", raw: map[string]any{"Fn::GetAtt": "OrdersBus.Arn"}, want: Ref{Kind: RefLogical, Value: "OrdersBus"}},
		{name: "import", raw: map[string]any{"Fn::ImportValue": "shared-bus-export"}, want: Ref{Kind: RefImport, Value: "shared-bus-export"}},
		{name: "other intrinsic", raw: map[string]any{"Fn::Sub": "x"}, want: Ref{Kind: RefUnknown}},
		{name: "number", raw: 42, want: Ref{Kind: RefUnknown, Value: "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseRef(tt.raw))
		})
	}
}

func TestResolver_Matches(t *testing.T) {
	table := NewTable(
		map[string]string{"OrdersBus": "orders-bus", "Unnamed": ""},
		map[string]string{"shared-export": "shared-bus"},
	)
	r := NewResolver(table)

	tests := []struct {
		name     string
		ref      Ref
		entryBus string
		want     bool
	}{
		{name: "literal exact", ref: Ref{Kind: RefLiteral, Value: "orders"}, entryBus: "orders", want: true},
		// Containment is deliberately loose: a short declared name matches any
		// entry bus that contains it.
		{name: "literal substring of entry bus", ref: Ref{Kind: RefLiteral, Value: "orders"}, entryBus: "orders-prod", want: true},
		{name: "arn declaration", ref: Ref{Kind: RefLiteral, Value: "arn:aws:events:us-east-1:000000000000:event-bus/orders"}, entryBus: "orders", want: true},
		{name: "literal mismatch", ref: Ref{Kind: RefLiteral, Value: "billing"}, entryBus: "orders", want: false},
		{name: "logical resolved", ref: Ref{Kind: RefLogical, Value: "OrdersBus"}, entryBus: "orders-bus", want: true},
		{name: "logical mismatch", ref: Ref{Kind: RefLogical, Value: "OrdersBus"}, entryBus: "billing", want: false},
		{name: "logical unknown", ref: Ref{Kind: RefLogical, Value: "Missing"}, entryBus: "orders-bus", want: false},
		{name: "logical without name", ref: Ref{Kind: RefLogical, Value: "Unnamed"}, entryBus: "orders-bus", want: false},
		{name: "import resolved", ref: Ref{Kind: RefImport, Value: "shared-export"}, entryBus: "shared-bus", want: true},
		{name: "import unknown", ref: Ref{Kind: RefImport, Value: "nope"}, entryBus: "shared-bus", want: false},
		{name: "unknown shape", ref: Ref{Kind: RefUnknown}, entryBus: "orders", want: false},
		{name: "none", ref: Ref{Kind: RefNone}, entryBus: "orders", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.Matches(tt.ref, tt.entryBus))
		})
	}
}

func TestResolver_NilTable(t *testing.T) {
	r := NewResolver(nil)
	require.False(t, r.Matches(Ref{Kind: RefLogical, Value: "OrdersBus"}, "orders"))
	require.True(t, r.Matches(Ref{Kind: RefLiteral, Value: "orders"}, "orders"))
}

func TestTable_Names(t *testing.T) {
	table := NewTable(map[string]string{"A": "a", "B": "b"}, map[string]string{"x": "a", "y": "c"})
	require.Equal(t, []string{"a", "b", "c"}, table.Names())
}
