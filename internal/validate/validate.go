// Package validate holds the pure input checks used by the intake wizards.
package validate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/recurrence"
)

var (
	ErrEmpty            = errors.New("empty input")
	ErrInvalidTime      = errors.New("invalid time, expected HH:MM")
	ErrUnknownWeekday   = errors.New("unknown weekday")
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrNotANumber       = errors.New("not a number")
	ErrOutOfRange       = errors.New("out of range")
)

// Range is an inclusive numeric interval. Zero Max means unbounded.
type Range struct {
	Min, Max float64
}

var (
	HeightCm = Range{Min: 50, Max: 272}
	WeightLb = Range{Min: 2, Max: 1400}
)

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// NonEmpty trims s and rejects blank input.
func NonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	return s, nil
}

// ParseTimeOfDay accepts strict 24-hour "HH:MM" with two digits each.
func ParseTimeOfDay(s string) (recurrence.TimeOfDay, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return recurrence.TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return recurrence.TimeOfDay{Hour: h, Minute: min}, nil
}

// ParseWeekday maps a Spanish weekday label to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := recurrence.LookupDay(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
	}
	return d, nil
}

// ParseFrequency matches one of the keyboard labels exactly (surrounding space ignored).
func ParseFrequency(s string) (recurrence.Frequency, error) {
	switch strings.TrimSpace(s) {
	case recurrence.LabelDaily:
		return recurrence.Daily, nil
	case recurrence.LabelWeekly:
		return recurrence.WeeklyOnDays, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
}

// ParsePositiveNumber parses a decimal (comma or dot separator) that must be > 0
// and inside r.
func ParsePositiveNumber(s string, r Range) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if v <= 0 || v < r.Min || (r.Max > 0 && v > r.Max) {
		return 0, fmt.Errorf("%w: %g", ErrOutOfRange, v)
	}
	return v, nil
}
