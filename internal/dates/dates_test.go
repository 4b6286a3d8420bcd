package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStrings(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"plain date unchanged", "2026-03-01", "2026-03-01"},
		{"iso timestamp keeps date part", "2026-03-01T00:00:00Z", "2026-03-01"},
		{"iso timestamp with offset", "2026-03-01T23:30:00-03:00", "2026-03-01"},
		{"nil time pointer", (*time.Time)(nil), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeMidnightUTCReadsUTCFields(t *testing.T) {
	// A DATE column scan: midnight UTC. The calendar fields must be read in
	// UTC even when the process runs west of Greenwich, where local time
	// would still be the previous day.
	d := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-06-05", Normalize(d))
	assert.Equal(t, "2026-06-05", Normalize(&d))
}

func TestNormalizeWallClockReadsLocalFields(t *testing.T) {
	// An actual instant (not the DATE convention) reads local fields.
	d := time.Date(2026, 6, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-06-05", Normalize(d))
}

func TestNormalizeIdempotent(t *testing.T) {
	d := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)
	once := Normalize(d)
	assert.Equal(t, once, Normalize(once))
}

func TestParseRoundTrip(t *testing.T) {
	parsed, err := Parse("2026-06-05")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC), parsed)
	assert.Equal(t, "2026-06-05", Normalize(parsed))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse("not-a-date")
	assert.Error(t, err)
	_, err = Parse("2026-13-40")
	assert.Error(t, err)
}

func TestParseAcceptsTimestamp(t *testing.T) {
	parsed, err := Parse("2026-06-05T18:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC), parsed)
}

func TestToday(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*3600)
	// 01:30 on June 6 in UTC+10 is still June 5 in UTC, but Today follows
	// the caller's calendar.
	now := time.Date(2026, 6, 6, 1, 30, 0, 0, zone)
	assert.Equal(t, time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC), Today(now))
}
