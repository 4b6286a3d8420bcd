package models

import (
	"time"

	"gorm.io/gorm"
)

type Talk struct {
	gorm.Model
	Number             int        `gorm:"uniqueIndex;not null"` // Public talk outline number
	Topic              string     `gorm:"not null"`
	OutlineVersionDate *time.Time `gorm:"type:date"` // Revision date of the printed outline, if known
}
