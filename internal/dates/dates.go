// Package dates reduces every date representation crossing the API and
// storage boundaries to one canonical YYYY-MM-DD calendar date.
//
// The schedule keeps delivery dates in SQL DATE columns. The driver scans
// those as time.Time values pinned to midnight UTC, while clients send
// either plain date strings or full ISO timestamps. Reading the calendar
// fields in the wrong zone shifts "June 5" to "June 4" or "June 6", so all
// date handling funnels through Normalize.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the canonical calendar date format.
const Layout = "2006-01-02"

var plainDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalize converts value to a YYYY-MM-DD string. Accepted inputs:
//
//   - a string already in YYYY-MM-DD form (returned unchanged),
//   - a string carrying a time part ("2026-03-01T00:00:00Z") — the date
//     portion before the separator is kept,
//   - a time.Time at exactly midnight UTC — the DATE column convention —
//     whose calendar fields are read in UTC,
//   - any other time.Time, whose calendar fields are read in local time,
//   - anything else, stringified as a fallback.
//
// nil and empty strings normalize to "". Normalize is idempotent.
func Normalize(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(v)
	case time.Time:
		return normalizeTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return normalizeTime(*v)
	default:
		return fmt.Sprint(v)
	}
}

func normalizeString(s string) string {
	if s == "" {
		return ""
	}
	if plainDate.MatchString(s) {
		return s
	}
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func normalizeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	// A DATE column comes back as midnight UTC; reading its fields in the
	// display zone would land on the previous or next day.
	utc := t.UTC()
	if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
		return utc.Format(Layout)
	}
	return t.Local().Format(Layout)
}

// Parse turns a canonical (or normalizable) date value into the midnight-UTC
// time.Time used for DATE column writes.
func Parse(value interface{}) (time.Time, error) {
	s := Normalize(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Today returns now's calendar date as midnight UTC, read in now's own zone.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
