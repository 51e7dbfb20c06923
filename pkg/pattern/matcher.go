// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pattern

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// numericFunc compares a candidate value against a bound.
type numericFunc func(value, bound float64) bool

var numericOperators = map[string]numericFunc{
	">":  func(v, b float64) bool { return v > b },
	"<":  func(v, b float64) bool { return v < b },
	">=": func(v, b float64) bool { return v >= b },
	"<=": func(v, b float64) bool { return v <= b },
	"=":  func(v, b float64) bool { return v == b },
}

// Match reports whether the evaluated values satisfy n.
//
// An empty value set only matches exists:false and anything-but.
func Match(values []any, n Node) bool {
	switch n.kind {
	case KindScalar:
		for _, v := range values {
			if scalarEqual(v, n.value) {
				return true
			}
		}
		return false

	case KindList:
		for _, item := range n.items {
			if Match(values, item) {
				return true
			}
		}
		return false

	case KindOperator:
		return matchOperator(values, n.op)

	default:
		log.Debug().Str("kind", n.kind.String()).Msg("Unknown pattern node kind")
		return false
	}
}

func matchOperator(values []any, op operator) bool {
	switch op.name {
	case OpExists:
		return (len(values) > 0) == op.exists

	case OpAnythingBut:
		return !Match(values, *op.negated)

	case OpPrefix:
		return anyString(values, func(s string) bool { return strings.HasPrefix(s, op.text) })

	case OpSuffix:
		return anyString(values, func(s string) bool { return strings.HasSuffix(s, op.text) })

	case OpEqualsIgnoreCase:
		return anyString(values, func(s string) bool { return strings.EqualFold(s, op.text) })

	case OpNumeric:
		for _, v := range values {
			num, ok := eventNumber(v)
			if !ok {
				continue
			}
			if satisfiesAll(num, op.numeric) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// leadingNumber matches the numeric prefix of a string such as "12px".
var leadingNumber = regexp.MustCompile(`^\s*[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// eventNumber reads an event value for numeric matching. Strings only need a
// numeric prefix: "12px" is 12.
func eventNumber(v any) (float64, bool) {
	if num, ok := toNumber(v); ok {
		return num, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	prefix := strings.TrimSpace(leadingNumber.FindString(s))
	if prefix == "" {
		return 0, false
	}
	return toNumber(prefix)
}

func satisfiesAll(value float64, conds []numericCondition) bool {
	for _, c := range conds {
		fn, ok := numericOperators[c.op]
		if !ok || !fn(value, c.bound) {
			return false
		}
	}
	return true
}

func anyString(values []any, fn func(string) bool) bool {
	for _, v := range values {
		if s, ok := v.(string); ok && fn(s) {
			return true
		}
	}
	return false
}

// scalarEqual compares JSON type and value. Numbers of any Go numeric type are
// compared as float64; a number never equals its string form.
func scalarEqual(value, want any) bool {
	switch w := want.(type) {
	case nil:
		return value == nil
	case string:
		s, ok := value.(string)
		return ok && s == w
	case bool:
		b, ok := value.(bool)
		return ok && b == w
	case float64:
		if _, isString := value.(string); isString {
			return false
		}
		f, ok := toNumber(value)
		return ok && f == w
	default:
		return false
	}
}
