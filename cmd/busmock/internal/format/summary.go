// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	srv "github.com/busmock/busmock/pkg/server"
)

// Error codes raised by the offline commands.
const (
	CodeInvalidPattern     = "INVALID_PATTERN"
	CodeInvalidEvent       = "INVALID_EVENT"
	CodeUnsupportedSched   = "UNSUPPORTED_SCHEDULE"
	CodeDefinitionsInvalid = "DEFINITIONS_INVALID"
)

// PrintTotalFailureSummary prints a failed operation and the suggestions
// registered for errorCode.
//
//	✗ Failed to start server: invalid port 0: must be between 1 and 65535
//
//	💡 Suggestions:
//	  → Use a port between 1 and 65535
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if f.quiet {
		return err
	}

	if f.mode == ModeJSON {
		if jsonErr := f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		}); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	var sb strings.Builder

	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	if suggestions := GetSuggestions(errorCode, err); len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	if _, writeErr := f.stderr.Write([]byte(sb.String())); writeErr != nil {
		return writeErr
	}
	return err
}

var suggestionGenerators = map[string]func() []string{
	CodeInvalidPattern: func() []string {
		return []string{
			"Patterns are JSON objects, e.g. {\"source\": [\"orders\"]}",
			"Supported operators: prefix, anything-but, numeric, exists",
		}
	},
	CodeInvalidEvent: func() []string {
		return []string{
			"The event file must hold one JSON object",
		}
	},
	CodeUnsupportedSched: func() []string {
		return []string{
			"Use rate(<n> minute|minutes|hour|hours|day|days)",
			"Or cron(<min> <hour> <day-of-month> <month> <day-of-week> <year>)",
		}
	},
	CodeDefinitionsInvalid: func() []string {
		return []string{
			"Point at another file:    busmock rules --definitions <path>",
			"Each function needs exactly one of url or command",
		}
	},
}

// GetSuggestions returns hints for errorCode. Server error codes are resolved
// through the server package.
func GetSuggestions(errorCode string, err error) []string {
	if gen, ok := suggestionGenerators[errorCode]; ok {
		return gen()
	}
	return srv.Suggestions(err)
}
