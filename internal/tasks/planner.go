package tasks

import (
	"log"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"
	"talkplanner/internal/schedule"
	"talkplanner/internal/storage"

	"github.com/robfig/cron/v3"
)

// SweepGapWeeks logs every week in the planning window that still has no
// local or received talk, so the coordinator sees the holes in the server log
// before anyone asks.
func SweepGapWeeks() {
	gaps, err := schedule.DetectGaps(storage.DB, schedule.DefaultGapWindowWeeks, time.Now())
	if err != nil {
		log.Println("gap sweep failed:", err)
		return
	}
	if len(gaps) == 0 {
		log.Println("gap sweep: every week in the window is covered")
		return
	}
	for _, gap := range gaps {
		log.Println("gap sweep:", gap.Message)
	}
}

// RemindOverdueEntries logs entries whose date has passed but were never
// marked as completed, so they can be completed or cleaned up.
func RemindOverdueEntries() {
	today := dates.Today(time.Now())

	var entries []models.ScheduleEntry
	err := storage.DB.
		Preload("Talk").Preload("Speaker").
		Where("date < ?", today).
		Order("date").
		Find(&entries).Error
	if err != nil {
		log.Println("overdue sweep failed:", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	for _, e := range entries {
		topic := "(no talk assigned)"
		if e.Talk != nil {
			topic = e.Talk.Topic
		}
		speaker := "(no speaker assigned)"
		if e.Speaker != nil {
			speaker = e.Speaker.Name
		}
		log.Printf("overdue since %s: %s by %s [%s], still not completed\n",
			dates.Normalize(e.Date), topic, speaker, e.Kind)
	}
}

// InitScheduler starts the cron jobs.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Gap sweep every Monday at 07:00.
	_, err := c.AddFunc("0 0 7 * * MON", SweepGapWeeks)
	if err != nil {
		log.Println("could not register cron job SweepGapWeeks:", err)
	}

	// Daily overdue-entry sweep at 06:00.
	_, err = c.AddFunc("0 0 6 * * *", RemindOverdueEntries)
	if err != nil {
		log.Println("could not register cron job RemindOverdueEntries:", err)
	}

	c.Start()
	log.Println("Cron scheduler started.")
	return c
}
