package schedule

import (
	"fmt"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"

	"gorm.io/gorm"
)

// DefaultGapWindowWeeks is how many Monday-Sunday weeks the gap sweep looks
// ahead.
const DefaultGapWindowWeeks = 5

// GapWeek flags one week without a qualifying weekend entry.
type GapWeek struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Message string `json:"message"`
}

// WeekStart returns the Monday of d's week as a midnight-UTC calendar date.
func WeekStart(d time.Time) time.Time {
	sinceMonday := (int(d.Weekday()) + 6) % 7
	return dates.Today(d).AddDate(0, 0, -sinceMonday)
}

// windowStart picks the first Monday of the sweep: the current week's,
// unless that week's Sunday has already passed.
func windowStart(today time.Time) time.Time {
	monday := WeekStart(today)
	if monday.AddDate(0, 0, 6).Before(today) {
		monday = monday.AddDate(0, 0, 7)
	}
	return monday
}

// coveredWeeks maps the Monday of every week that has a weekend entry among
// the given rows. Kind filtering happens in the query; the weekend check
// happens here.
func coveredWeeks(entries []models.ScheduleEntry) map[string]bool {
	covered := make(map[string]bool)
	for _, e := range entries {
		day := e.Date.UTC()
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			continue
		}
		covered[dates.Normalize(WeekStart(day))] = true
	}
	return covered
}

func gapRecords(start time.Time, weeks int, covered map[string]bool) []GapWeek {
	gaps := make([]GapWeek, 0)
	for i := 0; i < weeks; i++ {
		monday := start.AddDate(0, 0, 7*i)
		if covered[dates.Normalize(monday)] {
			continue
		}
		sunday := monday.AddDate(0, 0, 6)
		gaps = append(gaps, GapWeek{
			Start: dates.Normalize(monday),
			End:   dates.Normalize(sunday),
			Message: fmt.Sprintf("No talk scheduled for the week of %s to %s",
				monday.Format("02/01/2006"), sunday.Format("02/01/2006")),
		})
	}
	return gaps
}

// DetectGaps scans the forward window for weeks lacking a Saturday or Sunday
// entry of kind local or received. A week covered only by a sent entry still
// counts as a gap. The result is chronological; empty means full coverage.
func DetectGaps(db *gorm.DB, weeks int, now time.Time) ([]GapWeek, error) {
	if weeks <= 0 {
		weeks = DefaultGapWindowWeeks
	}
	start := windowStart(dates.Today(now))
	end := start.AddDate(0, 0, 7*weeks-1)

	var entries []models.ScheduleEntry
	err := db.Where("date BETWEEN ? AND ? AND kind IN ?",
		start, end, []string{models.KindLocal, models.KindReceived}).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return gapRecords(start, weeks, coveredWeeks(entries)), nil
}
