// Package schedule owns the lifecycle of schedule entries: validated CRUD
// and filtered listing, the duplicate guard, the completion transaction and
// the gap sweep. Every function takes the database handle explicitly so the
// package carries no hidden state.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the targeted entry does not exist.
var ErrNotFound = errors.New("schedule entry not found")

// ValidationError marks malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ReferenceError marks a talk/speaker/congregation id that does not exist.
type ReferenceError struct {
	Entity string
	ID     uint
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Entity, e.ID)
}

// EntryView is a schedule entry denormalized with the display fields the
// clients render. Date is always the canonical YYYY-MM-DD string.
type EntryView struct {
	ID               uint   `json:"id"`
	Date             string `json:"date"`
	TalkID           *uint  `json:"talk_id"`
	TalkNumber       *int   `json:"talk_number,omitempty"`
	TalkTopic        string `json:"talk_topic,omitempty"`
	SpeakerID        *uint  `json:"speaker_id"`
	SpeakerName      string `json:"speaker_name,omitempty"`
	CongregationID   *uint  `json:"congregation_id"`
	CongregationName string `json:"congregation_name,omitempty"`
	Kind             string `json:"kind"`
	Notes            string `json:"notes,omitempty"`
}

// NewEntryView builds the view from an entry loaded with its associations.
func NewEntryView(e models.ScheduleEntry) EntryView {
	v := EntryView{
		ID:             e.ID,
		Date:           dates.Normalize(e.Date),
		TalkID:         e.TalkID,
		SpeakerID:      e.SpeakerID,
		CongregationID: e.CongregationID,
		Kind:           e.Kind,
		Notes:          e.Notes,
	}
	if e.Talk != nil {
		n := e.Talk.Number
		v.TalkNumber = &n
		v.TalkTopic = e.Talk.Topic
	}
	if e.Speaker != nil {
		v.SpeakerName = e.Speaker.Name
	}
	if e.Congregation != nil {
		v.CongregationName = e.Congregation.Name
	}
	return v
}

// Filters narrow the listing; all are optional and combined with AND.
// Kinds takes precedence over Kind when both are set.
type Filters struct {
	Search         string
	Kind           string
	Kinds          []string
	CongregationID *uint
	DateFrom       time.Time
	DateTo         time.Time
}

// Page limits the listing. Limit <= 0 means unlimited.
type Page struct {
	Limit  int
	Offset int
}

// Result carries one page of entries plus the total ignoring pagination.
type Result struct {
	Items []EntryView `json:"items"`
	Total int64       `json:"total"`
}

func (f Filters) scope(q *gorm.DB) *gorm.DB {
	q = q.Joins("LEFT JOIN talks ON talks.id = schedule_entries.talk_id").
		Joins("LEFT JOIN speakers ON speakers.id = schedule_entries.speaker_id").
		Joins("LEFT JOIN congregations ON congregations.id = schedule_entries.congregation_id")
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(
			"CAST(talks.number AS TEXT) ILIKE ? OR talks.topic ILIKE ? OR speakers.name ILIKE ? OR congregations.name ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if len(f.Kinds) > 0 {
		q = q.Where("schedule_entries.kind IN ?", f.Kinds)
	} else if f.Kind != "" {
		q = q.Where("schedule_entries.kind = ?", f.Kind)
	}
	if f.CongregationID != nil {
		q = q.Where("schedule_entries.congregation_id = ?", *f.CongregationID)
	}
	if !f.DateFrom.IsZero() {
		q = q.Where("schedule_entries.date >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		q = q.Where("schedule_entries.date <= ?", f.DateTo)
	}
	return q
}

// List returns entries matching the filters ordered by date ascending.
func List(db *gorm.DB, f Filters, p Page) (*Result, error) {
	var total int64
	if err := f.scope(db.Model(&models.ScheduleEntry{})).Count(&total).Error; err != nil {
		return nil, err
	}

	q := f.scope(db.Model(&models.ScheduleEntry{})).
		Order("schedule_entries.date").
		Preload("Talk").Preload("Speaker").Preload("Congregation")
	if p.Limit > 0 {
		q = q.Limit(p.Limit).Offset(p.Offset)
	}

	var entries []models.ScheduleEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	items := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewEntryView(e))
	}
	return &Result{Items: items, Total: total}, nil
}

// Get loads one entry with its display fields.
func Get(db *gorm.DB, id uint) (*EntryView, error) {
	var e models.ScheduleEntry
	err := db.Preload("Talk").Preload("Speaker").Preload("Congregation").First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v := NewEntryView(e)
	return &v, nil
}

// Input is the create/update payload after JSON binding.
type Input struct {
	Date           string
	TalkID         *uint
	SpeakerID      *uint
	CongregationID *uint
	Kind           string
	Notes          string
}

func buildEntry(db *gorm.DB, in Input) (*models.ScheduleEntry, error) {
	if in.Date == "" || in.Kind == "" {
		return nil, &ValidationError{Msg: "date and kind are required"}
	}
	if !models.ValidKind(in.Kind) {
		return nil, &ValidationError{Msg: "kind must be one of local, sent, received"}
	}
	day, err := dates.Parse(in.Date)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if err := checkReferences(db, in); err != nil {
		return nil, err
	}
	return &models.ScheduleEntry{
		Date:           day,
		TalkID:         in.TalkID,
		SpeakerID:      in.SpeakerID,
		CongregationID: in.CongregationID,
		Kind:           in.Kind,
		Notes:          in.Notes,
	}, nil
}

func checkReferences(db *gorm.DB, in Input) error {
	check := func(entity string, id *uint, model interface{}) error {
		if id == nil {
			return nil
		}
		if err := db.First(model, *id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ReferenceError{Entity: entity, ID: *id}
			}
			return err
		}
		return nil
	}
	if err := check("talk", in.TalkID, &models.Talk{}); err != nil {
		return err
	}
	if err := check("speaker", in.SpeakerID, &models.Speaker{}); err != nil {
		return err
	}
	return check("congregation", in.CongregationID, &models.Congregation{})
}

// Create validates and persists a new entry. The duplicate guard is applied
// by the caller before Create (see RecentTalkOccurrences).
func Create(db *gorm.DB, in Input) (*EntryView, error) {
	entry, err := buildEntry(db, in)
	if err != nil {
		return nil, err
	}
	if err := db.Create(entry).Error; err != nil {
		return nil, err
	}
	return Get(db, entry.ID)
}

// Update re-validates the full field set and overwrites the entry. Edits do
// not re-trigger the duplicate guard.
func Update(db *gorm.DB, id uint, in Input) (*EntryView, error) {
	var existing models.ScheduleEntry
	if err := db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entry, err := buildEntry(db, in)
	if err != nil {
		return nil, err
	}
	// Map update so cleared references actually write NULL.
	updates := map[string]interface{}{
		"date":            entry.Date,
		"talk_id":         entry.TalkID,
		"speaker_id":      entry.SpeakerID,
		"congregation_id": entry.CongregationID,
		"kind":            entry.Kind,
		"notes":           entry.Notes,
	}
	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return Get(db, id)
}

// Delete removes an entry. Deleting an id that does not exist is a no-op.
func Delete(db *gorm.DB, id uint) error {
	return db.Delete(&models.ScheduleEntry{}, id).Error
}
