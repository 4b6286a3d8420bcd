package schedule

import (
	"errors"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"

	"gorm.io/gorm"
)

// Complete archives the entry into talk history, merges the talk number into
// the speaker's outline list and removes the active row, all inside one
// transaction. Any failure rolls the whole transition back.
func Complete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.ScheduleEntry
		if err := tx.Preload("Talk").First(&entry, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		day, err := dates.Parse(entry.Date)
		if err != nil {
			return err
		}
		record := models.TalkHistory{
			Date:           day,
			TalkID:         entry.TalkID,
			SpeakerID:      entry.SpeakerID,
			CongregationID: entry.CongregationID,
			Kind:           entry.Kind,
			Notes:          entry.Notes,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		// Only the completion transition may touch OutlineNumbers.
		if entry.SpeakerID != nil && entry.Talk != nil {
			var speaker models.Speaker
			if err := tx.First(&speaker, *entry.SpeakerID).Error; err != nil {
				return err
			}
			if speaker.AddOutlineNumber(entry.Talk.Number) {
				if err := tx.Model(&speaker).Update("outline_numbers", speaker.OutlineNumbers).Error; err != nil {
					return err
				}
			}
		}

		return tx.Delete(&entry).Error
	})
}
