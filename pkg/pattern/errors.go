// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pattern

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern is returned when a recognized operator carries a payload of
// the wrong shape, e.g. a numeric clause with an odd number of elements.
var ErrInvalidPattern = errors.New("invalid event pattern")

// UnsupportedFilterError reports an operator key the matcher does not implement.
// It is a configuration error: the subscription declaring it cannot be registered.
type UnsupportedFilterError struct {
	Operator string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("the %q event pattern filter is not supported", e.Operator)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidPattern}, args...)...)
}
