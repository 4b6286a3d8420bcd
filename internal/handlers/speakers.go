package handlers

import (
	"net/http"
	"strconv"

	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
)

type SpeakerView struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	Active           bool   `json:"active"`
	CongregationID   *uint  `json:"congregation_id"`
	CongregationName string `json:"congregation_name,omitempty"`
	OutlineNumbers   string `json:"outline_numbers"`
	OutlineList      []int  `json:"outline_list"`
}

func newSpeakerView(s models.Speaker) SpeakerView {
	v := SpeakerView{
		ID:             s.ID,
		Name:           s.Name,
		Phone:          s.Phone,
		Email:          s.Email,
		Active:         s.Active,
		CongregationID: s.CongregationID,
		OutlineNumbers: s.OutlineNumbers,
		OutlineList:    s.OutlineNumberList(),
	}
	if s.Congregation != nil {
		v.CongregationName = s.Congregation.Name
	}
	return v
}

type SpeakerListResponse struct {
	Items []SpeakerView `json:"items"`
	Total int64         `json:"total"`
}

// SpeakerRequest deliberately has no outline-numbers field: that column is
// owned by the completion transition.
type SpeakerRequest struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Active         *bool  `json:"active"`
	CongregationID *uint  `json:"congregation_id"`
}

// ListSpeakersHandler lists speakers
// @Summary		List speakers
// @Tags			speakers
// @Produce		json
// @Param			search	query	string	false	"Matches name, email or phone"
// @Param			congregation_id	query	int	false	"Home congregation filter"
// @Param			active	query	bool	false	"Active flag filter"
// @Param			limit	query	int		false	"Page size"
// @Param			offset	query	int		false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	SpeakerListResponse		"Speakers and total"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/speakers [get]
func ListSpeakersHandler(c *gin.Context) {
	q := storage.DB.Model(&models.Speaker{})
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	if congregation := c.Query("congregation_id"); congregation != "" {
		if id, err := strconv.Atoi(congregation); err == nil && id > 0 {
			q = q.Where("congregation_id = ?", id)
		}
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not count speakers", Details: err.Error(),
		})
		return
	}

	q = q.Preload("Congregation").Order("name")
	page := entryPage(c)
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}

	var speakers []models.Speaker
	if err := q.Find(&speakers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load speakers", Details: err.Error(),
		})
		return
	}

	items := make([]SpeakerView, 0, len(speakers))
	for _, s := range speakers {
		items = append(items, newSpeakerView(s))
	}
	c.JSON(http.StatusOK, SpeakerListResponse{Items: items, Total: total})
}

// GetSpeakerHandler returns one speaker
// @Summary		Get a speaker
// @Tags			speakers
// @Produce		json
// @Param			id	path	int	true	"Speaker ID"
// @Security		BearerAuth
// @Success		200	{object}	SpeakerView				"Speaker"
// @Failure		404	{object}	response.ErrorResponse	"Speaker not found (NOT_FOUND)"
// @Router			/api/speakers/{id} [get]
func GetSpeakerHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var speaker models.Speaker
	if err := storage.DB.Preload("Congregation").First(&speaker, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Speaker not found",
		})
		return
	}
	c.JSON(http.StatusOK, newSpeakerView(speaker))
}

func speakerCongregationExists(c *gin.Context, id *uint) bool {
	if id == nil {
		return true
	}
	if err := storage.DB.First(&models.Congregation{}, *id).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "REFERENCE_NOT_FOUND",
			Message: "Congregation " + strconv.Itoa(int(*id)) + " does not exist",
		})
		return false
	}
	return true
}

// CreateSpeakerHandler creates a speaker
// @Summary		Create a speaker
// @Tags			speakers
// @Accept			json
// @Produce		json
// @Param			speaker	body	SpeakerRequest	true	"Speaker data"
// @Security		BearerAuth
// @Success		201	{object}	SpeakerView				"Created speaker"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, REFERENCE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/speakers [post]
func CreateSpeakerHandler(c *gin.Context) {
	var req SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name is required",
			Details: err.Error(),
		})
		return
	}
	if !speakerCongregationExists(c, req.CongregationID) {
		return
	}

	speaker := models.Speaker{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Active:         true,
		CongregationID: req.CongregationID,
	}
	if req.Active != nil {
		speaker.Active = *req.Active
	}

	if err := storage.DB.Create(&speaker).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not create speaker", Details: err.Error(),
		})
		return
	}
	storage.DB.Preload("Congregation").First(&speaker, speaker.ID)
	c.JSON(http.StatusCreated, newSpeakerView(speaker))
}

// UpdateSpeakerHandler updates a speaker
// @Summary		Update a speaker
// @Description	Updates contact fields only; outline numbers never change here.
// @Tags			speakers
// @Accept			json
// @Produce		json
// @Param			id		path	int				true	"Speaker ID"
// @Param			speaker	body	SpeakerRequest	true	"Speaker data"
// @Security		BearerAuth
// @Success		200	{object}	SpeakerView				"Updated speaker"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, REFERENCE_NOT_FOUND)"
// @Failure		404	{object}	response.ErrorResponse	"Speaker not found (NOT_FOUND)"
// @Router			/api/speakers/{id} [put]
func UpdateSpeakerHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var speaker models.Speaker
	if err := storage.DB.First(&speaker, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Speaker not found",
		})
		return
	}

	var req SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name is required",
			Details: err.Error(),
		})
		return
	}
	if !speakerCongregationExists(c, req.CongregationID) {
		return
	}

	active := speaker.Active
	if req.Active != nil {
		active = *req.Active
	}
	updates := map[string]interface{}{
		"name":            req.Name,
		"phone":           req.Phone,
		"email":           req.Email,
		"active":          active,
		"congregation_id": req.CongregationID,
	}
	if err := storage.DB.Model(&speaker).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update speaker", Details: err.Error(),
		})
		return
	}
	storage.DB.Preload("Congregation").First(&speaker, id)
	c.JSON(http.StatusOK, newSpeakerView(speaker))
}

// DeleteSpeakerHandler removes a speaker
// @Summary		Delete a speaker
// @Tags			speakers
// @Produce		json
// @Param			id	path	int	true	"Speaker ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/speakers/{id} [delete]
func DeleteSpeakerHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := storage.DB.Delete(&models.Speaker{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not delete speaker", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Speaker deleted"})
}

// SpeakerHistoryHandler lists talks this speaker delivered away
// @Summary		Speaker delivery history
// @Description	History records where this speaker was sent to another congregation, newest first.
// @Tags			speakers
// @Produce		json
// @Param			id	path	int	true	"Speaker ID"
// @Security		BearerAuth
// @Success		200	{array}		HistoryView				"History"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/speakers/{id}/history [get]
func SpeakerHistoryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var records []models.TalkHistory
	err := storage.DB.
		Preload("Talk").Preload("Congregation").
		Where("speaker_id = ? AND kind = ?", id, models.KindSent).
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
