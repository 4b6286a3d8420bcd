package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutlineNumberList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []int
	}{
		{"empty", "", nil},
		{"single", "12", []int{12}},
		{"comma separated", "4, 12, 16", []int{4, 12, 16}},
		{"semicolon separated", "4; 12; 16", []int{4, 12, 16}},
		{"unsorted input comes back sorted", "16,4,12", []int{4, 12, 16}},
		{"junk tokens skipped", "4, abc, , 12", []int{4, 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Speaker{OutlineNumbers: tc.raw}
			assert.Equal(t, tc.want, s.OutlineNumberList())
		})
	}
}

func TestAddOutlineNumber(t *testing.T) {
	s := Speaker{OutlineNumbers: "4, 16"}

	assert.True(t, s.AddOutlineNumber(12))
	assert.Equal(t, "4, 12, 16", s.OutlineNumbers)

	// Already present: nothing changes.
	assert.False(t, s.AddOutlineNumber(12))
	assert.Equal(t, "4, 12, 16", s.OutlineNumbers)
}

func TestAddOutlineNumberFromEmpty(t *testing.T) {
	s := Speaker{}
	assert.True(t, s.AddOutlineNumber(7))
	assert.Equal(t, "7", s.OutlineNumbers)
	assert.Equal(t, []int{7}, s.OutlineNumberList())
}

func TestAddOutlineNumberNormalizesSemicolons(t *testing.T) {
	s := Speaker{OutlineNumbers: "16; 4"}
	assert.True(t, s.AddOutlineNumber(12))
	assert.Equal(t, "4, 12, 16", s.OutlineNumbers)
}
