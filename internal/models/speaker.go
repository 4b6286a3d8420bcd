package models

import (
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

type Speaker struct {
	gorm.Model
	Name           string `gorm:"not null"`
	Phone          string
	Email          string
	Active         bool  `gorm:"default:true"`
	CongregationID *uint `gorm:"index"` // Home congregation, if registered
	Congregation   *Congregation
	// OutlineNumbers is the list of talk numbers this speaker has delivered,
	// kept as a sorted "4, 12, 16" string. It is written only when an entry
	// is marked as completed, never by the ordinary speaker update.
	OutlineNumbers string
}

// OutlineNumberList parses OutlineNumbers into sorted ints. Both comma and
// semicolon separators occur in imported data.
func (s *Speaker) OutlineNumberList() []int {
	raw := s.OutlineNumbers
	sep := ";"
	if strings.Contains(raw, ",") {
		sep = ","
	}
	var nums []int
	for _, part := range strings.Split(raw, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// AddOutlineNumber inserts number into OutlineNumbers keeping the list
// sorted and free of duplicates. Returns false when the number was already
// present and nothing changed.
func (s *Speaker) AddOutlineNumber(number int) bool {
	nums := s.OutlineNumberList()
	for _, n := range nums {
		if n == number {
			return false
		}
	}
	nums = append(nums, number)
	sort.Ints(nums)
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, strconv.Itoa(n))
	}
	s.OutlineNumbers = strings.Join(parts, ", ")
	return true
}
