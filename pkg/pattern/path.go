// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pattern

import "strings"

// Evaluate resolves a dotted field path against obj and returns every leaf value
// the path reaches, in document order.
//
// Arrays are traversed implicitly: when the current value is an array, the
// remaining path is applied to each element and the results are flattened. A leaf
// that is itself an array contributes its elements. Missing segments simply yield
// no values for that branch.
func Evaluate(obj any, path string) []any {
	var out []any
	walk(obj, strings.Split(path, "."), &out)
	return out
}

func walk(current any, segments []string, out *[]any) {
	if items, ok := current.([]any); ok {
		for _, item := range items {
			walk(item, segments, out)
		}
		return
	}

	if len(segments) == 0 {
		*out = append(*out, current)
		return
	}

	fields, ok := current.(map[string]any)
	if !ok {
		return
	}

	next, ok := fields[segments[0]]
	if !ok {
		return
	}

	walk(next, segments[1:], out)
}
