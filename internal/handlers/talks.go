package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/schedule"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TalkView struct {
	ID                 uint   `json:"id"`
	Number             int    `json:"number"`
	Topic              string `json:"topic"`
	OutlineVersionDate string `json:"outline_version_date,omitempty"`
}

func newTalkView(t models.Talk) TalkView {
	return TalkView{
		ID:                 t.ID,
		Number:             t.Number,
		Topic:              t.Topic,
		OutlineVersionDate: dates.Normalize(t.OutlineVersionDate),
	}
}

type TalkListResponse struct {
	Items []TalkView `json:"items"`
	Total int64      `json:"total"`
}

type TalkRequest struct {
	Number             int    `json:"number" binding:"required,gt=0"`
	Topic              string `json:"topic" binding:"required"`
	OutlineVersionDate string `json:"outline_version_date"`
}

// HistoryView is a talk-history row denormalized for clients. Shared by the
// talk, speaker and congregation history endpoints.
type HistoryView struct {
	ID               uint   `json:"id"`
	Date             string `json:"date"`
	Kind             string `json:"kind"`
	Notes            string `json:"notes,omitempty"`
	TalkNumber       *int   `json:"talk_number,omitempty"`
	TalkTopic        string `json:"talk_topic,omitempty"`
	SpeakerName      string `json:"speaker_name,omitempty"`
	CongregationName string `json:"congregation_name,omitempty"`
}

func newHistoryView(h models.TalkHistory) HistoryView {
	v := HistoryView{
		ID:    h.ID,
		Date:  dates.Normalize(h.Date),
		Kind:  h.Kind,
		Notes: h.Notes,
	}
	if h.Talk != nil {
		n := h.Talk.Number
		v.TalkNumber = &n
		v.TalkTopic = h.Talk.Topic
	}
	if h.Speaker != nil {
		v.SpeakerName = h.Speaker.Name
	}
	if h.Congregation != nil {
		v.CongregationName = h.Congregation.Name
	}
	return v
}

// ListTalksHandler lists talks
// @Summary		List talks
// @Tags			talks
// @Produce		json
// @Param			search	query	string	false	"Matches talk number or topic"
// @Param			limit	query	int		false	"Page size"
// @Param			offset	query	int		false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	TalkListResponse		"Talks and total"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/talks [get]
func ListTalksHandler(c *gin.Context) {
	q := storage.DB.Model(&models.Talk{})
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("CAST(number AS TEXT) ILIKE ? OR topic ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not count talks", Details: err.Error(),
		})
		return
	}

	q = q.Order("number")
	page := entryPage(c)
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}

	var talks []models.Talk
	if err := q.Find(&talks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load talks", Details: err.Error(),
		})
		return
	}

	items := make([]TalkView, 0, len(talks))
	for _, t := range talks {
		items = append(items, newTalkView(t))
	}
	c.JSON(http.StatusOK, TalkListResponse{Items: items, Total: total})
}

// GetTalkHandler returns one talk
// @Summary		Get a talk
// @Tags			talks
// @Produce		json
// @Param			id	path	int	true	"Talk ID"
// @Security		BearerAuth
// @Success		200	{object}	TalkView				"Talk"
// @Failure		404	{object}	response.ErrorResponse	"Talk not found (NOT_FOUND)"
// @Router			/api/talks/{id} [get]
func GetTalkHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var talk models.Talk
	if err := storage.DB.First(&talk, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Talk not found",
		})
		return
	}
	c.JSON(http.StatusOK, newTalkView(talk))
}

func talkFromRequest(c *gin.Context, talk *models.Talk) bool {
	var req TalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Number and topic are required, number must be positive",
			Details: err.Error(),
		})
		return false
	}
	talk.Number = req.Number
	talk.Topic = req.Topic
	talk.OutlineVersionDate = nil
	if req.OutlineVersionDate != "" {
		day, err := dates.Parse(req.OutlineVersionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "outline_version_date must be YYYY-MM-DD",
			})
			return false
		}
		talk.OutlineVersionDate = &day
	}
	return true
}

// CreateTalkHandler creates a talk
// @Summary		Create a talk
// @Tags			talks
// @Accept			json
// @Produce		json
// @Param			talk	body	TalkRequest	true	"Talk data"
// @Security		BearerAuth
// @Success		201	{object}	TalkView				"Created talk"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, NUMBER_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/talks [post]
func CreateTalkHandler(c *gin.Context) {
	var talk models.Talk
	if !talkFromRequest(c, &talk) {
		return
	}

	var existing models.Talk
	if err := storage.DB.Where("number = ?", talk.Number).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NUMBER_EXISTS",
			Message: "A talk with this number already exists",
		})
		return
	}

	if err := storage.DB.Create(&talk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not create talk", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, newTalkView(talk))
}

// UpdateTalkHandler updates a talk
// @Summary		Update a talk
// @Tags			talks
// @Accept			json
// @Produce		json
// @Param			id		path	int			true	"Talk ID"
// @Param			talk	body	TalkRequest	true	"Talk data"
// @Security		BearerAuth
// @Success		200	{object}	TalkView				"Updated talk"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, NUMBER_EXISTS)"
// @Failure		404	{object}	response.ErrorResponse	"Talk not found (NOT_FOUND)"
// @Router			/api/talks/{id} [put]
func UpdateTalkHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var talk models.Talk
	if err := storage.DB.First(&talk, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Talk not found",
		})
		return
	}
	if !talkFromRequest(c, &talk) {
		return
	}

	var other models.Talk
	if err := storage.DB.Where("number = ? AND id <> ?", talk.Number, id).First(&other).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NUMBER_EXISTS",
			Message: "Another talk with this number already exists",
		})
		return
	}

	updates := map[string]interface{}{
		"number":               talk.Number,
		"topic":                talk.Topic,
		"outline_version_date": talk.OutlineVersionDate,
	}
	if err := storage.DB.Model(&talk).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update talk", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, newTalkView(talk))
}

// DeleteTalkHandler removes a talk
// @Summary		Delete a talk
// @Tags			talks
// @Produce		json
// @Param			id	path	int	true	"Talk ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/talks/{id} [delete]
func DeleteTalkHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := storage.DB.Delete(&models.Talk{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not delete talk", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Talk deleted"})
}

type TalkAlert struct {
	Type    string `json:"type"` // "warning" or "error"
	Message string `json:"message"`
}

type TalkAvailabilityResponse struct {
	Available       bool       `json:"available"`
	Alert           *TalkAlert `json:"alert"`
	LastDate        string     `json:"last_date,omitempty"`
	MonthsSinceLast *int       `json:"months_since_last,omitempty"`
}

// monthsBetween counts full calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

// TalkAvailabilityHandler advises on re-scheduling a talk
// @Summary		Check talk availability
// @Description	Looks up the last local delivery in history; warns when it was under a year ago, errors when under six months.
// @Tags			talks
// @Produce		json
// @Param			id	path	int	true	"Talk ID"
// @Security		BearerAuth
// @Success		200	{object}	TalkAvailabilityResponse	"Availability"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/talks/{id}/availability [get]
func TalkAvailabilityHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}

	var last models.TalkHistory
	err := storage.DB.
		Where("talk_id = ? AND kind = ?", id, models.KindLocal).
		Order("date DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, TalkAvailabilityResponse{Available: true})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not check availability", Details: err.Error(),
		})
		return
	}

	months := monthsBetween(last.Date.UTC(), dates.Today(time.Now()))
	var alert *TalkAlert
	if months <= 6 {
		alert = &TalkAlert{
			Type:    "error",
			Message: "This talk was delivered recently (" + strconv.Itoa(months) + " months ago). Waiting is recommended.",
		}
	} else if months <= 12 {
		alert = &TalkAlert{
			Type:    "warning",
			Message: "This talk was delivered less than a year ago (" + strconv.Itoa(months) + " months ago).",
		}
	}

	c.JSON(http.StatusOK, TalkAvailabilityResponse{
		Available:       true,
		Alert:           alert,
		LastDate:        dates.Normalize(last.Date),
		MonthsSinceLast: &months,
	})
}

// TalkRecentHandler lists recent occurrences of a talk
// @Summary		Recent occurrences of a talk
// @Description	Returns history and active-schedule occurrences inside the lookback window, newest first. This is the data the duplicate guard evaluates.
// @Tags			talks
// @Produce		json
// @Param			id		path	int	true	"Talk ID"
// @Param			days	query	int	false	"Lookback window in days (default 180)"
// @Security		BearerAuth
// @Success		200	{array}		schedule.Occurrence		"Occurrences"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/talks/{id}/recent [get]
func TalkRecentHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.Query("days"))
	occurrences, err := schedule.RecentTalkOccurrences(storage.DB, id, days, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load occurrences", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, occurrences)
}

// TalkHistoryHandler lists the full delivery history of a talk
// @Summary		Talk delivery history
// @Tags			talks
// @Produce		json
// @Param			id	path	int	true	"Talk ID"
// @Security		BearerAuth
// @Success		200	{array}		HistoryView				"History, newest first"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/talks/{id}/history [get]
func TalkHistoryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var records []models.TalkHistory
	err := storage.DB.
		Preload("Talk").Preload("Speaker").Preload("Congregation").
		Where("talk_id = ?", id).
		Order("date DESC").
		Find(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load history", Details: err.Error(),
		})
		return
	}
	views := make([]HistoryView, 0, len(records))
	for _, r := range records {
		views = append(views, newHistoryView(r))
	}
	c.JSON(http.StatusOK, views)
}
