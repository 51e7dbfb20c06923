// Package bus resolves the event bus a subscription declares against the bus
// name carried by an incoming entry.
package bus

import (
	"fmt"
	"strings"
)

// RefKind is the shape of a declared bus reference.
type RefKind int

const (
	// RefNone means no bus was declared: the subscription listens on every bus.
	RefNone RefKind = iota
	// RefLiteral is a bus name or ARN written inline.
	RefLiteral
	// RefLogical points at a bus resource declared in the same stack.
	RefLogical
	// RefImport points at a bus exported by another stack.
	RefImport
	// RefUnknown is any other shape. It never matches.
	RefUnknown
)

func (k RefKind) String() string {
	switch k {
	case RefNone:
		return "none"
	case RefLiteral:
		return "literal"
	case RefLogical:
		return "logical"
	case RefImport:
		return "import"
	default:
		return "unknown"
	}
}

// Ref is a parsed bus reference.
type Ref struct {
	Kind  RefKind
	Value string
}

// Declared reports whether the subscription named a bus at all.
func (r Ref) Declared() bool { return r.Kind != RefNone }

func (r Ref) String() string {
	switch r.Kind {
	case RefNone:
		return "-"
	case RefLiteral:
		return r.Value
	case RefLogical:
		return "Ref:" + r.Value
	case RefImport:
		return "ImportValue:" + r.Value
	default:
		return "?"
	}
}

// ParseRef converts the decoded eventBus value of a function event into a Ref.
//
// Accepted shapes: a string, {Ref: id}, {Fn::Ref: id}, {Fn::GetAtt: [id, attr]},
// {Fn::GetAtt: "id.attr"} and {Fn::ImportValue: name}. Anything else yields
// RefUnknown rather than an error.
func ParseRef(raw any) Ref {
	switch v := raw.(type) {
	case nil:
		return Ref{Kind: RefNone}
	case string:
		if v == "" {
			return Ref{Kind: RefNone}
		}
		return Ref{Kind: RefLiteral, Value: v}
	case map[string]any:
		return parseIntrinsic(v)
	default:
		return Ref{Kind: RefUnknown, Value: fmt.Sprint(raw)}
	}
}

func parseIntrinsic(obj map[string]any) Ref {
	for _, key := range []string{"Ref", "Fn::Ref"} {
		if id, ok := obj[key].(string); ok && id != "" {
			return Ref{Kind: RefLogical, Value: id}
		}
	}

	if att, ok := obj["Fn::GetAtt"]; ok {
		switch v := att.(type) {
		case []any:
			if len(v) > 0 {
				if id, ok := v[0].(string); ok && id != "" {
					return Ref{Kind: RefLogical, Value: id}
				}
			}
		case string:
			id, _, _ := strings.Cut(v, ".")
			if id != "" {
				return Ref{Kind: RefLogical, Value: id}
			}
		}
	}

	if name, ok := obj["Fn::ImportValue"].(string); ok && name != "" {
		return Ref{Kind: RefImport, Value: name}
	}

	return Ref{Kind: RefUnknown}
}
