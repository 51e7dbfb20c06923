// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package schedule translates rate and cron schedule expressions into standard
// five-field cron specs and runs them as recurring synthetic entries.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

var (
	rateRe = regexp.MustCompile(`^rate\(\s*(\d+)\s+(minutes?|hours?|days?)\s*\)$`)
	cronRe = regexp.MustCompile(`^cron\((.*)\)$`)
)

// UnsupportedScheduleError reports a schedule expression that cannot be run
// locally. The trigger declaring it is registered as disabled.
type UnsupportedScheduleError struct {
	Expression string
	Reason     string
}

func (e *UnsupportedScheduleError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("the schedule %q is not supported", e.Expression)
	}
	return fmt.Sprintf("the schedule %q is not supported: %s", e.Expression, e.Reason)
}

// Translate converts a rate(...) or cron(...) expression into a standard cron
// spec (minute hour day-of-month month day-of-week).
//
//	rate(N minutes) -> */N * * * *
//	rate(N hours)   -> 0 */N * * *
//	rate(N days)    -> 0 0 */N * *
//	cron(m h dom mon dow year) -> m h dom mon dow, with ? as * and 0/x as */x
//
// Numeric days of week count from SUN=1 in cron(...) and are shifted to the
// SUN=0 numbering of the local scheduler: cron(0 12 ? * 2 *) runs on Mondays.
func Translate(expr string) (string, error) {
	expr = strings.TrimSpace(expr)

	if m := rateRe.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return "", &UnsupportedScheduleError{Expression: expr, Reason: "rate value must be a positive integer"}
		}
		var spec string
		switch strings.TrimSuffix(m[2], "s") {
		case "minute":
			spec = fmt.Sprintf("*/%d * * * *", n)
		case "hour":
			spec = fmt.Sprintf("0 */%d * * *", n)
		case "day":
			spec = fmt.Sprintf("0 0 */%d * *", n)
		}
		return validate(expr, spec)
	}

	if m := cronRe.FindStringSubmatch(expr); m != nil {
		fields := strings.Fields(m[1])
		if len(fields) != 6 {
			return "", &UnsupportedScheduleError{Expression: expr, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
		}
		// the local scheduler has no year field
		fields = fields[:5]
		for i, f := range fields {
			f = strings.ReplaceAll(f, "?", "*")
			if strings.HasPrefix(f, "0/") {
				f = "*/" + strings.TrimPrefix(f, "0/")
			}
			fields[i] = f
		}
		dow, err := shiftDayOfWeek(fields[4])
		if err != nil {
			return "", &UnsupportedScheduleError{Expression: expr, Reason: err.Error()}
		}
		fields[4] = dow
		return validate(expr, strings.Join(fields, " "))
	}

	return "", &UnsupportedScheduleError{Expression: expr}
}

// shiftDayOfWeek rewrites the numeric days of a day-of-week field from 1-7 to
// 0-6. Step values after / are left alone; day names pass through.
func shiftDayOfWeek(field string) (string, error) {
	parts := strings.Split(field, ",")
	for i, part := range parts {
		base, step, hasStep := strings.Cut(part, "/")
		bounds := strings.Split(base, "-")
		for j, b := range bounds {
			n, err := strconv.Atoi(b)
			if err != nil {
				continue
			}
			if n < 1 || n > 7 {
				return "", fmt.Errorf("day of week %d is out of range 1-7", n)
			}
			bounds[j] = strconv.Itoa(n - 1)
		}
		part = strings.Join(bounds, "-")
		if hasStep {
			part += "/" + step
		}
		parts[i] = part
	}
	return strings.Join(parts, ","), nil
}

func validate(expr, spec string) (string, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", &UnsupportedScheduleError{Expression: expr, Reason: err.Error()}
	}
	return spec, nil
}
