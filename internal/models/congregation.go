package models

import "gorm.io/gorm"

type Congregation struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Address      string
	ContactName  string
	ContactPhone string
	MeetingDay   string // Weekday of the public meeting, e.g. "Saturday"
	MeetingTime  string // Meeting time as "HH:MM"
}
