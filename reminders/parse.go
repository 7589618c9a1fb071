package reminders

// Free-form time expression parsing. Grammars are tried in a fixed order and
// the first one that matches wins. Parse is pure: the result depends only on
// the expression and the passed reference time.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Hour of day used when an expression names a day but no time.
const defaultHour = 9

// Explicit absolute formats, most specific first.
var explicitLayouts = []struct {
	layout   string
	dateOnly bool
	noYear   bool
}{
	{"2006-01-02 15:04", false, false},
	{"2006-01-02", true, false},
	{"1/2/2006 15:04", false, false},
	{"1/2/2006", true, false},
	{"1/2 15:04", false, true},
	{"1/2", true, true},
}

var (
	durationRe = regexp.MustCompile(`^(?:in )?(a|an|\d+) ?([a-z]+)$`)
	compactRe  = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?$`)
	weekdayRe  = regexp.MustCompile(`^(?:next )?([a-z]+)(?: (\d{1,2}):(\d{2}))?$`)
)

var durationUnits = map[string]string{
	"s": "second", "sec": "second", "secs": "second", "second": "second", "seconds": "second",
	"m": "minute", "min": "minute", "mins": "minute", "minute": "minute", "minutes": "minute",
	"h": "hour", "hr": "hour", "hrs": "hour", "hour": "hour", "hours": "hour",
	"d": "day", "day": "day", "days": "day",
	"w": "week", "wk": "week", "wks": "week", "week": "week", "weeks": "week",
	"mo": "month", "mon": "month", "month": "month", "months": "month",
	"y": "year", "yr": "year", "yrs": "year", "year": "year", "years": "year",
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// Parse converts a textual time expression into an absolute future timestamp.
// A matched grammar that yields a timestamp not after now fails with PastTime;
// an expression no grammar recognizes fails with Unparseable.
func Parse(expression string, now time.Time) (time.Time, error) {
	expr := strings.Join(strings.Fields(expression), " ")
	if expr == "" {
		return time.Time{}, unparseable(expression)
	}

	if t, ok := parseExplicit(expr, now); ok {
		return checkFuture(t, expression, now)
	}

	lower := strings.ToLower(expr)
	if t, ok := parseKeyword(lower, now); ok {
		return checkFuture(t, expression, now)
	}
	if t, ok := parseDuration(lower, now); ok {
		return checkFuture(t, expression, now)
	}
	if t, ok := parseCompact(lower, now); ok {
		return checkFuture(t, expression, now)
	}
	if t, ok := parseWeekday(lower, now); ok {
		return checkFuture(t, expression, now)
	}

	return time.Time{}, unparseable(expression)
}

func checkFuture(t time.Time, expression string, now time.Time) (time.Time, error) {
	if !t.After(now) {
		return time.Time{}, pastTime(expression)
	}
	return t, nil
}

func parseExplicit(expr string, now time.Time) (time.Time, bool) {
	for _, l := range explicitLayouts {
		t, err := time.ParseInLocation(l.layout, expr, now.Location())
		if err != nil {
			continue
		}
		hour, minute := t.Hour(), t.Minute()
		if l.dateOnly {
			hour, minute = defaultHour, 0
		}
		year := t.Year()
		if l.noYear {
			year = now.Year()
		}
		t = time.Date(year, t.Month(), t.Day(), hour, minute, 0, 0, now.Location())
		// A bare month/day that already passed means the next occurrence.
		if l.noYear && !t.After(now) {
			t = t.AddDate(1, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

func parseKeyword(lower string, now time.Time) (time.Time, bool) {
	switch lower {
	case "now", "today":
		return now, true
	case "tomorrow":
		return atDefaultHour(now.AddDate(0, 0, 1)), true
	case "next week":
		return atDefaultHour(now.AddDate(0, 0, 7)), true
	}
	return time.Time{}, false
}

func parseDuration(lower string, now time.Time) (time.Time, bool) {
	m := durationRe.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	quantity := 1
	if m[1] != "a" && m[1] != "an" {
		var err error
		if quantity, err = strconv.Atoi(m[1]); err != nil {
			return time.Time{}, false
		}
	}
	unit, known := durationUnits[m[2]]
	if !known {
		return time.Time{}, false
	}
	switch unit {
	case "second":
		return now.Add(time.Duration(quantity) * time.Second), true
	case "minute":
		return now.Add(time.Duration(quantity) * time.Minute), true
	case "hour":
		return now.Add(time.Duration(quantity) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, quantity), true
	case "week":
		return now.AddDate(0, 0, 7*quantity), true
	case "month":
		return addMonths(now, quantity), true
	case "year":
		return addMonths(now, 12*quantity), true
	}
	return time.Time{}, false
}

func parseCompact(lower string, now time.Time) (time.Time, bool) {
	m := compactRe.FindStringSubmatch(lower)
	if m == nil || (m[1] == "" && m[2] == "") {
		return time.Time{}, false
	}
	var hours, minutes int
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}
	return now.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), true
}

func parseWeekday(lower string, now time.Time) (time.Time, bool) {
	m := weekdayRe.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	weekday, known := weekdays[m[1]]
	if !known {
		return time.Time{}, false
	}
	hour, minute := defaultHour, 0
	if m[2] != "" {
		hour, _ = strconv.Atoi(m[2])
		minute, _ = strconv.Atoi(m[3])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
	}
	// Same weekday today always means next week, never today.
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	day := now.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), true
}

// atDefaultHour resets the time of day, keeping the date.
func atDefaultHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), defaultHour, 0, 0, 0, t.Location())
}

// addMonths does calendar aware month addition, clamping the day of month to
// the last valid day of the resulting month (Jan 31 + 1 month -> Feb 28/29).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) - 1 + months
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	result := time.Month(m + 1)
	if last := daysInMonth(year, result); day > last {
		day = last
	}
	return time.Date(year, result, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
