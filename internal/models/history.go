package models

import (
	"time"

	"gorm.io/gorm"
)

// TalkHistory is the append-only archive a schedule entry moves into when it
// is marked as completed. CreatedAt records when the entry was archived.
type TalkHistory struct {
	gorm.Model
	Date           time.Time `gorm:"type:date;index;not null"`
	TalkID         *uint     `gorm:"index"`
	Talk           *Talk
	SpeakerID      *uint `gorm:"index"`
	Speaker        *Speaker
	CongregationID *uint `gorm:"index"`
	Congregation   *Congregation
	Kind           string `gorm:"type:varchar(16);not null"`
	Notes          string
}
