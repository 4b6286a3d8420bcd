package models

import "gorm.io/gorm"

// Arrangement is the monthly plan linking a year/month to the congregations
// taking part. Only one arrangement may exist per (year, month).
type Arrangement struct {
	gorm.Model
	Year          int            `gorm:"not null;uniqueIndex:idx_arrangement_month"`
	Month         int            `gorm:"not null;uniqueIndex:idx_arrangement_month"`
	Congregations []Congregation `gorm:"many2many:arrangement_congregations"`
}
