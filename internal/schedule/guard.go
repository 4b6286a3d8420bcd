package schedule

import (
	"sort"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"

	"gorm.io/gorm"
)

// DefaultLookbackDays is the duplicate-guard window: a talk delivered or
// scheduled inside it needs explicit confirmation before being scheduled
// again.
const DefaultLookbackDays = 180

// Occurrence is one past or pending delivery of a talk, from either the
// history archive or the active schedule.
type Occurrence struct {
	Source         string `json:"source"` // "history" or "schedule"
	ID             uint   `json:"id"`
	TalkID         *uint  `json:"talk_id"`
	SpeakerID      *uint  `json:"speaker_id"`
	CongregationID *uint  `json:"congregation_id"`
	Date           string `json:"date"`
	Kind           string `json:"kind"`
	Notes          string `json:"notes,omitempty"`
}

// RecentTalkOccurrences returns the talk's deliveries within the lookback
// window, newest first. The cutoff day itself counts as inside the window.
// The check-then-create sequence is advisory: two concurrent creates can
// both pass it, which is accepted.
func RecentTalkOccurrences(db *gorm.DB, talkID uint, lookbackDays int, now time.Time) ([]Occurrence, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	cutoff := dates.Today(now).AddDate(0, 0, -lookbackDays)

	var history []models.TalkHistory
	if err := db.Where("talk_id = ? AND date >= ?", talkID, cutoff).Find(&history).Error; err != nil {
		return nil, err
	}
	var active []models.ScheduleEntry
	if err := db.Where("talk_id = ? AND date >= ?", talkID, cutoff).Find(&active).Error; err != nil {
		return nil, err
	}

	occurrences := make([]Occurrence, 0, len(history)+len(active))
	for _, h := range history {
		occurrences = append(occurrences, Occurrence{
			Source:         "history",
			ID:             h.ID,
			TalkID:         h.TalkID,
			SpeakerID:      h.SpeakerID,
			CongregationID: h.CongregationID,
			Date:           dates.Normalize(h.Date),
			Kind:           h.Kind,
			Notes:          h.Notes,
		})
	}
	for _, e := range active {
		occurrences = append(occurrences, Occurrence{
			Source:         "schedule",
			ID:             e.ID,
			TalkID:         e.TalkID,
			SpeakerID:      e.SpeakerID,
			CongregationID: e.CongregationID,
			Date:           dates.Normalize(e.Date),
			Kind:           e.Kind,
			Notes:          e.Notes,
		})
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Date > occurrences[j].Date
	})
	return occurrences, nil
}
