// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationRegex matches duration strings like "24h", "7d", "30d".
var durationRegex = regexp.MustCompile(`^(\d+)([hdwm])$`)

// parseSinceValue parses a --since value into a time.Time cutoff.
// Accepts:
//   - Keywords: "today", "yesterday"
//   - Durations: "24h", "48h", "7d", "2w", "1m" (hours, days, weeks, months)
//   - Dates: "2026-08-30" (YYYY-MM-DD format)
//
// Returns the cutoff time (entries created after this time are included).
func parseSinceValue(value string) (time.Time, error) {
	t, err := parseTimeValue(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value %q; use today, a duration (24h, 7d, 2w), or a date (2026-08-30)", value)
	}
	return t, nil
}

// parseUntilValue parses a --until value into a time.Time cutoff.
// For date-only values, returns end of day so the full day is included.
func parseUntilValue(value string) (time.Time, error) {
	cutoff, err := parseTimeValue(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --until value %q; use today, a duration (24h, 7d, 2w), or a date (2026-08-30)", value)
	}
	if isDateOnly(value) || value == "today" || value == "yesterday" {
		cutoff = cutoff.Add(24*time.Hour - time.Second)
	}
	return cutoff, nil
}

// isDateOnly reports whether value is a bare YYYY-MM-DD date.
func isDateOnly(value string) bool {
	return len(value) == 10 && value[4] == '-' && value[7] == '-'
}

// parseTimeValue parses a time value (keyword, duration, or date).
func parseTimeValue(value string) (time.Time, error) {
	now := time.Now().UTC()

	switch value {
	case "today":
		return now.Truncate(24 * time.Hour), nil
	case "yesterday":
		return now.Truncate(24 * time.Hour).AddDate(0, 0, -1), nil
	}

	if matches := durationRegex.FindStringSubmatch(value); len(matches) == 3 {
		return parseDuration(matches[1], matches[2])
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time value: %s", value)
}

// parseDuration converts a numeric value and unit to a time cutoff.
func parseDuration(numStr, unit string) (time.Time, error) {
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		return time.Time{}, fmt.Errorf("invalid duration number: %s", numStr)
	}

	now := time.Now().UTC()

	switch unit {
	case "h":
		return now.Add(-time.Duration(num) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -num), nil
	case "w":
		return now.AddDate(0, 0, -num*7), nil
	case "m":
		return now.AddDate(0, -num, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
