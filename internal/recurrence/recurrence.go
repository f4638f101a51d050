// Package recurrence maps weekday selections onto the two recurrence shapes
// the planner supports and produces the display labels derived from them.
// Everything here is pure; state lives with the callers.
package recurrence

import (
	"errors"
	"sort"
	"strings"
)

type Option string

const (
	EveryDay     Option = "EVERY_DAY"
	SpecificDays Option = "SPECIFIC_DAYS"
)

// WeekOrder is the fixed authoring-calendar week, Monday first. Positional
// operations like the "this and following" cut are defined against it.
var WeekOrder = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var weekIndex = func() map[string]int {
	m := make(map[string]int, len(WeekOrder))
	for i, day := range WeekOrder {
		m[day] = i
	}
	return m
}()

var ErrNoDaysSelected = errors.New("select at least one day")

// Normalize lowercases weekday names and drops unrecognized ones. Upstream
// data sources have been observed to send mixed case, so leniency here is
// deliberate.
func Normalize(days []string) []string {
	var out []string
	for _, day := range days {
		lowered := strings.ToLower(strings.TrimSpace(day))
		if _, ok := weekIndex[lowered]; ok {
			out = append(out, lowered)
		}
	}
	return out
}

// IsValidWeekday reports whether day names one of the seven weekdays,
// ignoring case.
func IsValidWeekday(day string) bool {
	_, ok := weekIndex[strings.ToLower(day)]
	return ok
}

// Classify returns EveryDay iff the selection covers all seven days.
// Exceptions never change the classification, only the label.
func Classify(days []string, hasException bool) Option {
	if len(uniqueDays(days)) == len(WeekOrder) {
		return EveryDay
	}
	return SpecificDays
}

// Describe summarizes a day selection for display.
func Describe(days []string, hasException bool) string {
	normalized := SortWeekOrder(uniqueDays(days))

	if len(normalized) == len(WeekOrder) {
		if hasException {
			return "Every day (with exceptions)"
		}
		return "Every day"
	}

	if len(normalized) == 1 {
		return "Every " + titleDay(normalized[0])
	}

	if equalDays(normalized, WeekOrder[:5]) {
		return "Weekdays"
	}
	if equalDays(normalized, WeekOrder[5:]) {
		return "Weekends"
	}

	short := make([]string, len(normalized))
	for i, day := range normalized {
		short[i] = titleDay(day)[:3]
	}
	return "Repeats: " + strings.Join(short, ", ")
}

// Validate checks a selection against its option before any operation is
// dispatched.
func Validate(option Option, selectedDays []string) error {
	if option == SpecificDays && len(Normalize(selectedDays)) == 0 {
		return ErrNoDaysSelected
	}
	return nil
}

// DaysFor expands an option into its concrete day set.
func DaysFor(option Option, selectedDays []string) []string {
	if option == EveryDay {
		out := make([]string, len(WeekOrder))
		copy(out, WeekOrder)
		return out
	}
	return SortWeekOrder(uniqueDays(selectedDays))
}

// SortWeekOrder sorts days Monday-first, in place, and returns the slice.
func SortWeekOrder(days []string) []string {
	sort.Slice(days, func(i, j int) bool {
		return weekIndex[days[i]] < weekIndex[days[j]]
	})
	return days
}

// DaysOnOrAfter returns the weekdays at or after day in the fixed week
// ordering. This is a positional cut, not a calendar-date one: the planner
// has no absolute dates, only weekday slots in a repeating week.
func DaysOnOrAfter(day string) []string {
	start, ok := weekIndex[strings.ToLower(day)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(WeekOrder)-start)
	out = append(out, WeekOrder[start:]...)
	return out
}

// Subset reports whether every day in inner appears in outer.
func Subset(inner, outer []string) bool {
	set := make(map[string]bool, len(outer))
	for _, day := range outer {
		set[day] = true
	}
	for _, day := range inner {
		if !set[day] {
			return false
		}
	}
	return true
}

func uniqueDays(days []string) []string {
	seen := make(map[string]bool, len(days))
	var out []string
	for _, day := range Normalize(days) {
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	return out
}

func equalDays(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func titleDay(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + day[1:]
}
