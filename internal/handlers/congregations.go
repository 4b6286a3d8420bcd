package handlers

import (
	"net/http"

	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
)

type CongregationView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	MeetingDay   string `json:"meeting_day,omitempty"`
	MeetingTime  string `json:"meeting_time,omitempty"`
}

func newCongregationView(cg models.Congregation) CongregationView {
	return CongregationView{
		ID:           cg.ID,
		Name:         cg.Name,
		Address:      cg.Address,
		ContactName:  cg.ContactName,
		ContactPhone: cg.ContactPhone,
		MeetingDay:   cg.MeetingDay,
		MeetingTime:  cg.MeetingTime,
	}
}

type CongregationListResponse struct {
	Items []CongregationView `json:"items"`
	Total int64              `json:"total"`
}

type CongregationRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	MeetingDay   string `json:"meeting_day"`
	MeetingTime  string `json:"meeting_time"`
}

// ListCongregationsHandler lists congregations
// @Summary		List congregations
// @Tags			congregations
// @Produce		json
// @Param			search	query	string	false	"Matches name, address, contact or meeting day"
// @Param			limit	query	int		false	"Page size"
// @Param			offset	query	int		false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	CongregationListResponse	"Congregations and total"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/congregations [get]
func ListCongregationsHandler(c *gin.Context) {
	q := storage.DB.Model(&models.Congregation{})
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("name ILIKE ? OR address ILIKE ? OR contact_name ILIKE ? OR meeting_day ILIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not count congregations", Details: err.Error(),
		})
		return
	}

	q = q.Order("name")
	page := entryPage(c)
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}

	var congregations []models.Congregation
	if err := q.Find(&congregations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load congregations", Details: err.Error(),
		})
		return
	}

	items := make([]CongregationView, 0, len(congregations))
	for _, cg := range congregations {
		items = append(items, newCongregationView(cg))
	}
	c.JSON(http.StatusOK, CongregationListResponse{Items: items, Total: total})
}

// GetCongregationHandler returns one congregation
// @Summary		Get a congregation
// @Tags			congregations
// @Produce		json
// @Param			id	path	int	true	"Congregation ID"
// @Security		BearerAuth
// @Success		200	{object}	CongregationView		"Congregation"
// @Failure		404	{object}	response.ErrorResponse	"Congregation not found (NOT_FOUND)"
// @Router			/api/congregations/{id} [get]
func GetCongregationHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var congregation models.Congregation
	if err := storage.DB.First(&congregation, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Congregation not found",
		})
		return
	}
	c.JSON(http.StatusOK, newCongregationView(congregation))
}

// CreateCongregationHandler creates a congregation
// @Summary		Create a congregation
// @Tags			congregations
// @Accept			json
// @Produce		json
// @Param			congregation	body	CongregationRequest	true	"Congregation data"
// @Security		BearerAuth
// @Success		201	{object}	CongregationView		"Created congregation"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/congregations [post]
func CreateCongregationHandler(c *gin.Context) {
	var req CongregationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name is required",
			Details: err.Error(),
		})
		return
	}

	congregation := models.Congregation{
		Name:         req.Name,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		MeetingDay:   req.MeetingDay,
		MeetingTime:  req.MeetingTime,
	}
	if err := storage.DB.Create(&congregation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not create congregation", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, newCongregationView(congregation))
}

// UpdateCongregationHandler updates a congregation
// @Summary		Update a congregation
// @Tags			congregations
// @Accept			json
// @Produce		json
// @Param			id				path	int					true	"Congregation ID"
// @Param			congregation	body	CongregationRequest	true	"Congregation data"
// @Security		BearerAuth
// @Success		200	{object}	CongregationView		"Updated congregation"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Congregation not found (NOT_FOUND)"
// @Router			/api/congregations/{id} [put]
func UpdateCongregationHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var congregation models.Congregation
	if err := storage.DB.First(&congregation, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Congregation not found",
		})
		return
	}

	var req CongregationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name is required",
			Details: err.Error(),
		})
		return
	}

	updates := map[string]interface{}{
		"name":          req.Name,
		"address":       req.Address,
		"contact_name":  req.ContactName,
		"contact_phone": req.ContactPhone,
		"meeting_day":   req.MeetingDay,
		"meeting_time":  req.MeetingTime,
	}
	if err := storage.DB.Model(&congregation).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update congregation", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, newCongregationView(congregation))
}

// DeleteCongregationHandler removes a congregation
// @Summary		Delete a congregation
// @Tags			congregations
// @Produce		json
// @Param			id	path	int	true	"Congregation ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/congregations/{id} [delete]
func DeleteCongregationHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := storage.DB.Delete(&models.Congregation{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not delete congregation", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Congregation deleted"})
}

// CongregationHistoryHandler lists talks received from this congregation
// @Summary		Congregation received history
// @Description	History records where a speaker from this congregation delivered a talk here, newest first.
// @Tags			congregations
// @Produce		json
// @Param			id	path	int	true	"Congregation ID"
// @Security		BearerAuth
// @Success		200	{array}		HistoryView				"History"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/congregations/{id}/history [get]
func CongregationHistoryHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var records []models.TalkHistory
	err := storage.DB.
		Preload("Talk").Preload("Speaker").
		Where("congregation_id = ? AND kind = ?", id, models.KindReceived).
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
