// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package pattern implements content-based event pattern matching: dotted path
// evaluation with implicit array traversal, a parsed pattern representation and
// the matcher that evaluates it.
package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	// KindScalar matches values strictly equal to the scalar.
	KindScalar Kind = iota
	// KindList matches when any of its items matches.
	KindList
	// KindOperator applies one operator (exists, prefix, numeric, ...).
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindOperator:
		return "operator"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operator names recognized inside an operator object.
const (
	OpExists           = "exists"
	OpAnythingBut      = "anything-but"
	OpPrefix           = "prefix"
	OpSuffix           = "suffix"
	OpEqualsIgnoreCase = "equals-ignore-case"
	OpNumeric          = "numeric"
)

// orKey holds alternative sub-patterns in a detail pattern tree.
const orKey = "$or"

// Node is one parsed pattern node. Nodes are built once by Parse and never
// mutated afterwards, so they can be shared between goroutines.
type Node struct {
	kind  Kind
	value any      // KindScalar
	items []Node   // KindList
	op    operator // KindOperator
}

// Kind returns the variant of n.
func (n Node) Kind() Kind { return n.kind }

type operator struct {
	name    string
	exists  bool
	text    string
	negated *Node
	numeric []numericCondition
}

type numericCondition struct {
	op    string
	bound float64
}

// IsOperatorObject reports whether raw is a single-key object naming a
// recognized operator.
func IsOperatorObject(raw any) bool {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) != 1 {
		return false
	}
	for key := range obj {
		return isOperatorName(key)
	}
	return false
}

func isOperatorName(name string) bool {
	switch name {
	case OpExists, OpAnythingBut, OpPrefix, OpSuffix, OpEqualsIgnoreCase, OpNumeric:
		return true
	}
	return false
}

// Parse converts a decoded pattern value (JSON or YAML) into a Node.
//
// Scalars become KindScalar, arrays become KindList and single-key objects become
// KindOperator. Unknown operator keys fail with *UnsupportedFilterError.
func Parse(raw any) (Node, error) {
	switch v := raw.(type) {
	case []any:
		items := make([]Node, 0, len(v))
		for i, item := range v {
			n, err := Parse(item)
			if err != nil {
				return Node{}, fmt.Errorf("item[%d]: %w", i, err)
			}
			items = append(items, n)
		}
		return Node{kind: KindList, items: items}, nil

	case map[string]any:
		op, err := parseOperator(v)
		if err != nil {
			return Node{}, err
		}
		return Node{kind: KindOperator, op: op}, nil

	default:
		value, err := normalizeScalar(raw)
		if err != nil {
			return Node{}, err
		}
		return Node{kind: KindScalar, value: value}, nil
	}
}

// MustParse is like Parse but panics on error. Intended for tests and literals.
func MustParse(raw any) Node {
	n, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return n
}

func parseOperator(obj map[string]any) (operator, error) {
	if len(obj) != 1 {
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return operator{}, &UnsupportedFilterError{Operator: strings.Join(keys, ",")}
	}

	var (
		name    string
		payload any
	)
	for key, value := range obj {
		name, payload = key, value
	}

	switch name {
	case OpExists:
		b, ok := payload.(bool)
		if !ok {
			return operator{}, invalidf("%s requires a boolean, got %T", name, payload)
		}
		return operator{name: name, exists: b}, nil

	case OpPrefix, OpSuffix, OpEqualsIgnoreCase:
		s, ok := payload.(string)
		if !ok {
			return operator{}, invalidf("%s requires a string, got %T", name, payload)
		}
		return operator{name: name, text: s}, nil

	case OpAnythingBut:
		negated, err := parseNegated(payload)
		if err != nil {
			return operator{}, err
		}
		return operator{name: name, negated: &negated}, nil

	case OpNumeric:
		conds, err := parseNumeric(payload)
		if err != nil {
			return operator{}, err
		}
		return operator{name: name, numeric: conds}, nil

	default:
		return operator{}, &UnsupportedFilterError{Operator: name}
	}
}

// parseNegated accepts a scalar, a list of scalars, or one string operator
// (prefix, suffix, equals-ignore-case).
func parseNegated(payload any) (Node, error) {
	switch v := payload.(type) {
	case map[string]any:
		n, err := Parse(v)
		if err != nil {
			return Node{}, err
		}
		switch n.op.name {
		case OpPrefix, OpSuffix, OpEqualsIgnoreCase:
			return n, nil
		}
		return Node{}, invalidf("%s cannot wrap %s", OpAnythingBut, n.op.name)

	case []any:
		for i, item := range v {
			if _, ok := item.(map[string]any); ok {
				return Node{}, invalidf("%s list item[%d] must be a scalar", OpAnythingBut, i)
			}
			if _, ok := item.([]any); ok {
				return Node{}, invalidf("%s list item[%d] must be a scalar", OpAnythingBut, i)
			}
		}
		return Parse(v)

	default:
		return Parse(v)
	}
}

func parseNumeric(payload any) ([]numericCondition, error) {
	items, ok := payload.([]any)
	if !ok {
		return nil, invalidf("%s requires an array, got %T", OpNumeric, payload)
	}
	if len(items) == 0 || len(items)%2 != 0 {
		return nil, invalidf("%s requires operator/value pairs, got %d elements", OpNumeric, len(items))
	}

	conds := make([]numericCondition, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		op, ok := items[i].(string)
		if !ok {
			return nil, invalidf("%s operator at index %d must be a string", OpNumeric, i)
		}
		switch op {
		case ">", "<", ">=", "<=", "=":
		default:
			return nil, invalidf("%s operator %q is not one of > < >= <= =", OpNumeric, op)
		}

		bound, ok := toNumber(items[i+1])
		if !ok {
			return nil, invalidf("%s value at index %d must be a number", OpNumeric, i+1)
		}
		conds = append(conds, numericCondition{op: op, bound: bound})
	}
	return conds, nil
}

// normalizeScalar folds every numeric type to float64 so that pattern literals
// decoded from YAML compare equal to event values decoded from JSON.
func normalizeScalar(raw any) (any, error) {
	switch v := raw.(type) {
	case nil, string, bool, float64:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return cast.ToFloat64E(v)
	default:
		return nil, invalidf("unsupported pattern value type %T", raw)
	}
}

// toNumber converts numbers and numeric strings to float64. Booleans and other
// types are rejected even though cast would coerce them.
func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	case string, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
