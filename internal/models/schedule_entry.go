package models

import (
	"time"

	"gorm.io/gorm"
)

// Entry kinds. "local" is delivered at the home congregation, "sent" is a
// home speaker delivering elsewhere, "received" is a visiting speaker
// delivering here.
const (
	KindLocal    = "local"
	KindSent     = "sent"
	KindReceived = "received"
)

// ValidKind reports whether kind belongs to the closed three-value set.
func ValidKind(kind string) bool {
	return kind == KindLocal || kind == KindSent || kind == KindReceived
}

type ScheduleEntry struct {
	gorm.Model
	Date           time.Time `gorm:"type:date;index;not null"` // Delivery date, calendar date only
	TalkID         *uint     `gorm:"index"`
	Talk           *Talk
	SpeakerID      *uint `gorm:"index"`
	Speaker        *Speaker
	CongregationID *uint `gorm:"index"`
	Congregation   *Congregation
	Kind           string `gorm:"type:varchar(16);not null"`
	Notes          string
}
