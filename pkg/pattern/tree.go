// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pattern

import (
	"fmt"
	"sort"
)

// Operators that exist on real buses but are not implemented here. A single-key
// object naming one of them is rejected instead of being read as a nested field.
var unsupportedOperators = map[string]bool{
	"cidr":     true,
	"wildcard": true,
}

// Tree is a parsed detail pattern: dotted field paths mapped to pattern nodes,
// or a list of alternative trees when the pattern declares $or.
type Tree struct {
	fields []field
	or     []*Tree
}

type field struct {
	path string
	node Node
}

// ParseTree flattens a nested detail pattern into dotted paths and parses every
// leaf. Nested objects expand into parent.child keys; arrays and operator
// objects are leaves.
//
// A top-level $or key must hold a list of objects, each parsed as its own tree.
// When $or is present the remaining keys at that level are ignored.
func ParseTree(raw map[string]any) (*Tree, error) {
	if alts, ok := raw[orKey]; ok {
		return parseOr(alts)
	}

	flat := map[string]any{}
	if err := flatten(raw, "", flat); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	t := &Tree{fields: make([]field, 0, len(paths))}
	for _, path := range paths {
		n, err := Parse(flat[path])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t.fields = append(t.fields, field{path: path, node: n})
	}
	return t, nil
}

func parseOr(raw any) (*Tree, error) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, invalidf("%s requires a non-empty list of patterns", orKey)
	}

	t := &Tree{or: make([]*Tree, 0, len(items))}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalidf("%s item[%d] must be an object, got %T", orKey, i, item)
		}
		alt, err := ParseTree(obj)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", orKey, i, err)
		}
		t.or = append(t.or, alt)
	}
	return t, nil
}

func flatten(obj map[string]any, prefix string, out map[string]any) error {
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if key == orKey {
			// only recognised at the top level of a tree
			return &UnsupportedFilterError{Operator: orKey}
		}

		nested, ok := value.(map[string]any)
		if !ok || IsOperatorObject(nested) {
			out[path] = value
			continue
		}
		if len(nested) == 1 {
			for name := range nested {
				if unsupportedOperators[name] {
					return &UnsupportedFilterError{Operator: name}
				}
			}
		}
		if err := flatten(nested, path, out); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns the flattened field paths of t in sorted order. Alternatives of
// an $or tree are not included.
func (t *Tree) Paths() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, f.path)
	}
	return out
}

// Alternatives returns the number of $or alternatives, zero for a plain tree.
func (t *Tree) Alternatives() int {
	if t == nil {
		return 0
	}
	return len(t.or)
}

// Match evaluates the tree against obj. Each path is evaluated independently
// against the unflattened object. An empty tree matches everything.
func (t *Tree) Match(obj any) bool {
	if t == nil {
		return true
	}
	if len(t.or) > 0 {
		for _, alt := range t.or {
			if alt.Match(obj) {
				return true
			}
		}
		return false
	}

	for _, f := range t.fields {
		if !Match(Evaluate(obj, f.path), f.node) {
			return false
		}
	}
	return true
}
