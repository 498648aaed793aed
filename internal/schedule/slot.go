// Package schedule parses the compact weekly timetable strings carried on
// sections ("Mon/Wed/Fri 10:00-11:30") and detects clashes between them.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// Slot is the parsed form of a schedule string: one or more weekday codes
// plus a half-open time range in minutes since midnight.
type Slot struct {
	Days        []string
	StartMinute int
	EndMinute   int
}

// Unscheduled is the sentinel schedule text for sections without a
// timetable yet. Callers must short-circuit on it before parsing.
const Unscheduled = "TBA"

var (
	clockRe    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	nonLetters = regexp.MustCompile(`[^a-zA-Z]`)
)

var dayNames = map[string]string{
	"mon": "Mon", "monday": "Mon",
	"tue": "Tue", "tuesday": "Tue",
	"wed": "Wed", "wednesday": "Wed",
	"thu": "Thu", "thursday": "Thu",
	"fri": "Fri", "friday": "Fri",
	"sat": "Sat", "saturday": "Sat",
	"sun": "Sun", "sunday": "Sun",
}

// IsUnscheduled reports whether the schedule text denotes a section with
// no timetable (empty or "TBA", case-insensitive).
func IsUnscheduled(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.EqualFold(trimmed, Unscheduled)
}

// ParseSlot parses a schedule string into a Slot. The last
// whitespace-separated token is the time range; everything before it is
// rejoined and split on "/" to yield day tokens, which tolerates day
// lists containing internal spaces. Unrecognized day tokens are dropped.
//
// Malformed input never yields an error: ok is false and callers must
// treat the schedule as carrying no conflict information.
func ParseSlot(text string) (slot *Slot, ok bool) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) < 2 {
		return nil, false
	}

	daysText := strings.Join(parts[:len(parts)-1], " ")
	var days []string
	for _, token := range strings.Split(daysText, "/") {
		if day, valid := normalizeDay(token); valid {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, false
	}

	timeParts := strings.Split(parts[len(parts)-1], "-")
	if len(timeParts) != 2 {
		return nil, false
	}
	start, okStart := parseClock(timeParts[0])
	end, okEnd := parseClock(timeParts[1])
	if !okStart || !okEnd || start >= end {
		return nil, false
	}

	return &Slot{Days: days, StartMinute: start, EndMinute: end}, true
}

// normalizeDay matches a token case-insensitively against full or
// abbreviated English weekday names and returns the 3-letter code.
func normalizeDay(token string) (string, bool) {
	clean := strings.ToLower(nonLetters.ReplaceAllString(token, ""))
	day, ok := dayNames[clean]
	return day, ok
}

// parseClock converts an "H:MM" or "HH:MM" token to minutes since
// midnight.
func parseClock(token string) (int, bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
