package schedule

import (
	"testing"
	"time"

	"talkplanner/internal/models"

	"github.com/stretchr/testify/assert"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{"monday maps to itself", utcDate(2026, 6, 1), utcDate(2026, 6, 1)},
		{"wednesday", utcDate(2026, 6, 3), utcDate(2026, 6, 1)},
		{"saturday", utcDate(2026, 6, 6), utcDate(2026, 6, 1)},
		{"sunday belongs to the week behind it", utcDate(2026, 6, 7), utcDate(2026, 6, 1)},
		{"across month boundary", utcDate(2026, 7, 1), utcDate(2026, 6, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekStart(tc.day))
		})
	}
}

func TestWindowStart(t *testing.T) {
	// Mid-week: the current week is still in play.
	assert.Equal(t, utcDate(2026, 6, 1), windowStart(utcDate(2026, 6, 3)))
	// Sunday itself still belongs to the current week.
	assert.Equal(t, utcDate(2026, 6, 1), windowStart(utcDate(2026, 6, 7)))
	// Monday opens the next week.
	assert.Equal(t, utcDate(2026, 6, 8), windowStart(utcDate(2026, 6, 8)))
}

func TestCoveredWeeksWeekendOnly(t *testing.T) {
	entries := []models.ScheduleEntry{
		{Date: utcDate(2026, 6, 6), Kind: models.KindLocal},     // Saturday, covers week of June 1
		{Date: utcDate(2026, 6, 10), Kind: models.KindLocal},    // Wednesday, does not cover anything
		{Date: utcDate(2026, 6, 21), Kind: models.KindReceived}, // Sunday, covers week of June 15
	}
	covered := coveredWeeks(entries)
	assert.True(t, covered["2026-06-01"])
	assert.False(t, covered["2026-06-08"])
	assert.True(t, covered["2026-06-15"])
	assert.Len(t, covered, 2)
}

func TestGapRecordsFullCoverage(t *testing.T) {
	start := utcDate(2026, 6, 1)
	covered := map[string]bool{
		"2026-06-01": true,
		"2026-06-08": true,
		"2026-06-15": true,
	}
	gaps := gapRecords(start, 3, covered)
	assert.Empty(t, gaps)
}

func TestGapRecordsOneHole(t *testing.T) {
	start := utcDate(2026, 6, 1)
	covered := map[string]bool{
		"2026-06-01": true,
		"2026-06-15": true,
	}
	gaps := gapRecords(start, 3, covered)
	if assert.Len(t, gaps, 1) {
		assert.Equal(t, "2026-06-08", gaps[0].Start)
		assert.Equal(t, "2026-06-14", gaps[0].End)
		assert.Equal(t, "No talk scheduled for the week of 08/06/2026 to 14/06/2026", gaps[0].Message)
	}
}

func TestGapRecordsEmptySchedule(t *testing.T) {
	start := utcDate(2026, 6, 1)
	gaps := gapRecords(start, 5, map[string]bool{})
	assert.Len(t, gaps, 5)
	assert.Equal(t, "2026-06-01", gaps[0].Start)
	assert.Equal(t, "2026-06-29", gaps[4].Start)
	assert.Equal(t, "2026-07-05", gaps[4].End)
}
