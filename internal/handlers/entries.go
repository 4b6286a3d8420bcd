package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/schedule"
	"talkplanner/internal/storage"
	"talkplanner/internal/ws"

	"github.com/gin-gonic/gin"
)

// ConfirmRequiredResponse is the structured 409 the create endpoint returns
// when the duplicate guard trips; the client re-submits with confirm=true to
// force creation.
type ConfirmRequiredResponse struct {
	Code        string                `json:"code"`
	Message     string                `json:"message"`
	Occurrences []schedule.Occurrence `json:"occurrences"`
}

// parseEntryID reads the :id path segment. Shared by every resource handler,
// so the message names no particular entity.
func parseEntryID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Invalid id in path",
		})
		return 0, false
	}
	return uint(id), true
}

func writeScheduleError(c *gin.Context, err error) {
	var vErr *schedule.ValidationError
	var rErr *schedule.ReferenceError
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Schedule entry not found",
		})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: vErr.Msg,
		})
	case errors.As(err, &rErr):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "REFERENCE_NOT_FOUND",
			Message: rErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Database error",
			Details: err.Error(),
		})
	}
}

// entryFilters reads the shared listing filters from the query string.
func entryFilters(c *gin.Context) (schedule.Filters, bool) {
	f := schedule.Filters{
		Search: c.Query("search"),
		Kind:   c.Query("kind"),
	}

	kinds := c.QueryArray("kinds")
	if len(kinds) == 1 && strings.Contains(kinds[0], ",") {
		kinds = strings.Split(kinds[0], ",")
	}
	for _, k := range kinds {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !models.ValidKind(k) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "kind must be one of local, sent, received",
			})
			return f, false
		}
		f.Kinds = append(f.Kinds, k)
	}

	congregation := c.Query("congregation_id")
	if congregation == "" {
		congregation = c.Query("congregation")
	}
	if congregation != "" {
		id, err := strconv.Atoi(congregation)
		if err == nil && id > 0 {
			cid := uint(id)
			f.CongregationID = &cid
		}
	}

	if from := c.Query("date_from"); from != "" {
		day, err := dates.Parse(from)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "date_from must be YYYY-MM-DD",
			})
			return f, false
		}
		f.DateFrom = day
	}
	if to := c.Query("date_to"); to != "" {
		day, err := dates.Parse(to)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "date_to must be YYYY-MM-DD",
			})
			return f, false
		}
		f.DateTo = day
	}
	return f, true
}

func entryPage(c *gin.Context) schedule.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	return schedule.Page{Limit: limit, Offset: offset}
}

// ListEntriesHandler lists schedule entries
// @Summary		List schedule entries
// @Description	Filtered, paginated listing. Filters combine with AND; kinds takes precedence over kind.
// @Tags			schedule-entries
// @Produce		json
// @Param			search	query		string	false	"Matches talk number, topic, speaker or congregation name"
// @Param			kind	query		string	false	"Single kind filter (local, sent, received)"
// @Param			kinds	query		[]string	false	"Multi-kind filter"
// @Param			congregation_id	query	int	false	"Congregation filter"
// @Param			date_from	query	string	false	"Inclusive lower date bound (YYYY-MM-DD)"
// @Param			date_to	query		string	false	"Inclusive upper date bound (YYYY-MM-DD)"
// @Param			limit	query		int		false	"Page size (unlimited when absent)"
// @Param			offset	query		int		false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	schedule.Result			"Entries and total"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/schedule-entries [get]
func ListEntriesHandler(c *gin.Context) {
	filters, ok := entryFilters(c)
	if !ok {
		return
	}
	result, err := schedule.List(storage.DB, filters, entryPage(c))
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpcomingEntriesHandler lists entries from today on
// @Summary		List upcoming schedule entries
// @Tags			schedule-entries
// @Produce		json
// @Param			search	query		string	false	"Free-text filter"
// @Param			kind	query		string	false	"Kind filter"
// @Param			limit	query		int		false	"Page size"
// @Param			offset	query		int		false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	schedule.Result			"Entries and total"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/schedule-entries/upcoming [get]
func UpcomingEntriesHandler(c *gin.Context) {
	filters, ok := entryFilters(c)
	if !ok {
		return
	}
	filters.DateFrom = dates.Today(time.Now())
	result, err := schedule.List(storage.DB, filters, entryPage(c))
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEntryHandler returns one entry
// @Summary		Get a schedule entry
// @Tags			schedule-entries
// @Produce		json
// @Param			id	path	int	true	"Entry ID"
// @Security		BearerAuth
// @Success		200	{object}	schedule.EntryView		"Entry"
// @Failure		404	{object}	response.ErrorResponse	"Entry not found (NOT_FOUND)"
// @Router			/api/schedule-entries/{id} [get]
func GetEntryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	entry, err := schedule.Get(storage.DB, id)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type EntryRequest struct {
	Date           string `json:"date"`
	TalkID         *uint  `json:"talk_id"`
	SpeakerID      *uint  `json:"speaker_id"`
	CongregationID *uint  `json:"congregation_id"`
	Kind           string `json:"kind"`
	Notes          string `json:"notes"`
	// Confirm forces creation past the duplicate guard. Ignored on update.
	Confirm bool `json:"confirm"`
}

func (r EntryRequest) input() schedule.Input {
	return schedule.Input{
		Date:           r.Date,
		TalkID:         r.TalkID,
		SpeakerID:      r.SpeakerID,
		CongregationID: r.CongregationID,
		Kind:           r.Kind,
		Notes:          r.Notes,
	}
}

// CreateEntryHandler creates an entry, enforcing the duplicate guard
// @Summary		Create a schedule entry
// @Description	When the talk was delivered or scheduled within the last 180 days and confirm is false, responds 409 with the conflicting occurrences instead of creating.
// @Tags			schedule-entries
// @Accept			json
// @Produce		json
// @Param			entry	body	EntryRequest	true	"Entry data"
// @Security		BearerAuth
// @Success		201	{object}	schedule.EntryView			"Created entry"
// @Failure		400	{object}	response.ErrorResponse		"Validation error (VALIDATION_ERROR, REFERENCE_NOT_FOUND)"
// @Failure		409	{object}	ConfirmRequiredResponse		"Confirmation required (CONFIRM_REQUIRED)"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/schedule-entries [post]
func CreateEntryHandler(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid entry data",
			Details: err.Error(),
		})
		return
	}

	if req.TalkID != nil && !req.Confirm {
		occurrences, err := schedule.RecentTalkOccurrences(storage.DB, *req.TalkID, schedule.DefaultLookbackDays, time.Now())
		if err != nil {
			writeScheduleError(c, err)
			return
		}
		if len(occurrences) > 0 {
			c.JSON(http.StatusConflict, ConfirmRequiredResponse{
				Code:        "CONFIRM_REQUIRED",
				Message:     "This talk was already delivered in the last 180 days. Confirm creation?",
				Occurrences: occurrences,
			})
			return
		}
	}

	entry, err := schedule.Create(storage.DB, req.input())
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	InvalidateUpcomingTalksCache()
	ws.HubInstance.BroadcastEvent("entry_created", entry)
	c.JSON(http.StatusCreated, entry)
}

// UpdateEntryHandler overwrites an entry
// @Summary		Update a schedule entry
// @Description	Same field set and validation as create; the duplicate guard is not re-applied on edits.
// @Tags			schedule-entries
// @Accept			json
// @Produce		json
// @Param			id		path	int				true	"Entry ID"
// @Param			entry	body	EntryRequest	true	"Entry data"
// @Security		BearerAuth
// @Success		200	{object}	schedule.EntryView		"Updated entry"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, REFERENCE_NOT_FOUND)"
// @Failure		404	{object}	response.ErrorResponse	"Entry not found (NOT_FOUND)"
// @Router			/api/schedule-entries/{id} [put]
func UpdateEntryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid entry data",
			Details: err.Error(),
		})
		return
	}

	entry, err := schedule.Update(storage.DB, id, req.input())
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	InvalidateUpcomingTalksCache()
	ws.HubInstance.BroadcastEvent("entry_updated", entry)
	c.JSON(http.StatusOK, entry)
}

// DeleteEntryHandler removes an entry
// @Summary		Delete a schedule entry
// @Description	Idempotent; deleting an id that does not exist still succeeds.
// @Tags			schedule-entries
// @Produce		json
// @Param			id	path	int	true	"Entry ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/schedule-entries/{id} [delete]
func DeleteEntryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := schedule.Delete(storage.DB, id); err != nil {
		writeScheduleError(c, err)
		return
	}
	InvalidateUpcomingTalksCache()
	ws.HubInstance.BroadcastEvent("entry_deleted", gin.H{"id": id})
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Schedule entry deleted"})
}

// CompleteEntryHandler archives a delivered entry
// @Summary		Mark a schedule entry as completed
// @Description	Moves the entry into talk history, records the talk number on the speaker and removes it from the active schedule, atomically.
// @Tags			schedule-entries
// @Produce		json
// @Param			id	path	int	true	"Entry ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Completed"
// @Failure		404	{object}	response.ErrorResponse		"Entry not found (NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Transaction failed and was rolled back (TRANSACTION_ERROR)"
// @Router			/api/schedule-entries/{id}/complete [post]
func CompleteEntryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := schedule.Complete(storage.DB, id); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "Schedule entry not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TRANSACTION_ERROR",
			Message: "Could not complete the entry; nothing was changed",
			Details: err.Error(),
		})
		return
	}
	InvalidateUpcomingTalksCache()
	ws.HubInstance.BroadcastEvent("entry_completed", gin.H{"id": id})
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Entry marked as completed and moved to history"})
}

type GapWeeksResponse struct {
	Gaps []schedule.GapWeek `json:"gaps"`
}

// GapWeeksHandler reports weeks lacking weekend coverage
// @Summary		Detect gap weeks
// @Description	Scans the forward window (default 5 Monday-Sunday weeks) for weeks without a Saturday or Sunday entry of kind local or received.
// @Tags			schedule-entries
// @Produce		json
// @Param			weeks	query	int	false	"Window length in weeks"
// @Security		BearerAuth
// @Success		200	{object}	GapWeeksResponse		"Gap weeks, chronological; empty means full coverage"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/schedule-entries/gaps [get]
func GapWeeksHandler(c *gin.Context) {
	weeks, _ := strconv.Atoi(c.Query("weeks"))
	gaps, err := schedule.DetectGaps(storage.DB, weeks, time.Now())
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, GapWeeksResponse{Gaps: gaps})
}
