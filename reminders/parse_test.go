package reminders

import (
	"errors"
	"testing"
	"time"
)

// Tuesday, mid-day.
var tuesdayNoon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, expression string, now time.Time) time.Time {
	t.Helper()
	result, err := Parse(expression, now)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %s", expression, err)
	}
	return result
}

func TestParseExplicitFormats(t *testing.T) {
	now := tuesdayNoon
	cases := []struct {
		expression string
		want       time.Time
	}{
		{"2026-01-05 14:30", time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)},
		{"2026-12-24", time.Date(2026, 12, 24, 9, 0, 0, 0, time.UTC)},
		{"12/24/2026 18:15", time.Date(2026, 12, 24, 18, 15, 0, 0, time.UTC)},
		{"12/24/2026", time.Date(2026, 12, 24, 9, 0, 0, 0, time.UTC)},
		{"12/24 18:15", time.Date(2026, 12, 24, 18, 15, 0, 0, time.UTC)},
		{"12/3", time.Date(2026, 12, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := mustParse(t, c.expression, now); !got.Equal(c.want) {
			t.Errorf("Parse(%q) = %s, want %s", c.expression, got, c.want)
		}
	}

	// The "2026-01-05 14:30" test, but with an even earlier now: the result
	// must not depend on the reference time.
	earlier := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	if got := mustParse(t, "2026-01-05 14:30", earlier); !got.Equal(want) {
		t.Errorf("Parse with earlier now = %s, want %s", got, want)
	}
}

func TestParseBareDateAdvancesYear(t *testing.T) {
	// Jan 31 has already passed by March, so 1/31 means next year's.
	now := tuesdayNoon
	want := time.Date(2027, 1, 31, 9, 0, 0, 0, time.UTC)
	if got := mustParse(t, "1/31", now); !got.Equal(want) {
		t.Errorf("Parse(\"1/31\") = %s, want %s", got, want)
	}

	// But a bare date still ahead this year stays in this year.
	want = time.Date(2026, 12, 3, 9, 0, 0, 0, time.UTC)
	if got := mustParse(t, "12/3", now); !got.Equal(want) {
		t.Errorf("Parse(\"12/3\") = %s, want %s", got, want)
	}
}

func TestParseExplicitPastFails(t *testing.T) {
	_, err := Parse("2020-01-01 10:00", tuesdayNoon)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Kind != PastTime {
		t.Fatalf("expected PastTime, got %v", err)
	}
}

func TestParseKeywords(t *testing.T) {
	now := tuesdayNoon
	if got := mustParse(t, "tomorrow", now); !got.Equal(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("tomorrow = %s", got)
	}
	if got := mustParse(t, "next week", now); !got.Equal(time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("next week = %s", got)
	}
	// "now" matches a grammar but is never strictly in the future.
	var parseErr *ParseError
	if _, err := Parse("now", now); !errors.As(err, &parseErr) || parseErr.Kind != PastTime {
		t.Errorf("now: expected PastTime, got %v", err)
	}
}

func TestParseRelativeDurations(t *testing.T) {
	now := tuesdayNoon
	cases := []struct {
		expression string
		want       time.Time
	}{
		{"in 2 weeks", now.AddDate(0, 0, 14)},
		{"2 weeks", now.AddDate(0, 0, 14)},
		{"in 5 minutes", now.Add(5 * time.Minute)},
		{"in 30 secs", now.Add(30 * time.Second)},
		{"in an hour", now.Add(time.Hour)},
		{"a day", now.AddDate(0, 0, 1)},
		{"in 3 days", now.AddDate(0, 0, 3)},
		{"in 2 years", time.Date(2028, 3, 10, 12, 0, 0, 0, time.UTC)},
		{"in 10 months", time.Date(2027, 1, 10, 12, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := mustParse(t, c.expression, now); !got.Equal(c.want) {
			t.Errorf("Parse(%q) = %s, want %s", c.expression, got, c.want)
		}
	}
}

func TestParseMonthAdditionClamps(t *testing.T) {
	jan31 := time.Date(2026, 1, 31, 15, 0, 0, 0, time.UTC)
	want := time.Date(2026, 2, 28, 15, 0, 0, 0, time.UTC)
	if got := mustParse(t, "in 1 month", jan31); !got.Equal(want) {
		t.Errorf("Jan 31 + 1 month = %s, want %s", got, want)
	}

	leapJan31 := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
	want = time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC)
	if got := mustParse(t, "in a month", leapJan31); !got.Equal(want) {
		t.Errorf("leap year Jan 31 + 1 month = %s, want %s", got, want)
	}
}

func TestParseYearAdditionClampsLeapDay(t *testing.T) {
	feb29 := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	want := time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)
	if got := mustParse(t, "in a year", feb29); !got.Equal(want) {
		t.Errorf("Feb 29 + 1 year = %s, want %s", got, want)
	}
}

func TestParseCompactShorthand(t *testing.T) {
	now := tuesdayNoon
	cases := []struct {
		expression string
		want       time.Time
	}{
		{"2h30m", now.Add(150 * time.Minute)},
		{"90m", now.Add(90 * time.Minute)},
		{"4h", now.Add(4 * time.Hour)},
	}
	for _, c := range cases {
		if got := mustParse(t, c.expression, now); !got.Equal(c.want) {
			t.Errorf("Parse(%q) = %s, want %s", c.expression, got, c.want)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	now := tuesdayNoon
	// Next Friday at the default hour.
	if got := mustParse(t, "friday", now); !got.Equal(time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("friday = %s", got)
	}
	if got := mustParse(t, "next friday 9:15", now); !got.Equal(time.Date(2026, 3, 13, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("next friday 9:15 = %s", got)
	}
}

func TestParseWeekdaySameDayMeansNextWeek(t *testing.T) {
	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	// Even though 14:00 today is still ahead, monday resolves to next week.
	want := time.Date(2026, 3, 16, 14, 0, 0, 0, time.UTC)
	if got := mustParse(t, "monday 14:00", monday); !got.Equal(want) {
		t.Errorf("monday 14:00 on a Monday = %s, want %s", got, want)
	}
}

func TestParseDeterministicAndIdempotent(t *testing.T) {
	now := tuesdayNoon
	first := mustParse(t, "12/24 18:15", now)
	second := mustParse(t, "12/24 18:15", now)
	if !first.Equal(second) {
		t.Fatalf("parse is not deterministic: %s vs %s", first, second)
	}
	// Re-parsing the canonical form of the result lands on the same instant.
	canonical := first.Format("2006-01-02 15:04")
	if got := mustParse(t, canonical, now); !got.Equal(first) {
		t.Errorf("re-parse of %q = %s, want %s", canonical, got, first)
	}
}

func TestParseUnparseable(t *testing.T) {
	for _, expression := range []string{"", "whenever", "in 5 fortnights", "13/45", "h30m"} {
		_, err := Parse(expression, tuesdayNoon)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) || parseErr.Kind != Unparseable {
			t.Errorf("Parse(%q): expected Unparseable, got %v", expression, err)
		}
	}
}
