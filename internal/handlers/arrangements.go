package handlers

import (
	"net/http"

	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CongregationRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ArrangementView struct {
	ID            uint              `json:"id"`
	Year          int               `json:"year"`
	Month         int               `json:"month"`
	Congregations []CongregationRef `json:"congregations"`
}

func newArrangementView(a models.Arrangement) ArrangementView {
	refs := make([]CongregationRef, 0, len(a.Congregations))
	for _, cg := range a.Congregations {
		refs = append(refs, CongregationRef{ID: cg.ID, Name: cg.Name})
	}
	return ArrangementView{ID: a.ID, Year: a.Year, Month: a.Month, Congregations: refs}
}

type ArrangementListResponse struct {
	Items []ArrangementView `json:"items"`
	Total int64             `json:"total"`
}

type ArrangementRequest struct {
	Year          int    `json:"year" binding:"required"`
	Month         int    `json:"month" binding:"required"`
	Congregations []uint `json:"congregations"`
}

// loadArrangementCongregations resolves ids to rows and fails the request
// when any id does not exist.
func loadArrangementCongregations(c *gin.Context, ids []uint) ([]models.Congregation, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	var congregations []models.Congregation
	if err := storage.DB.Where("id IN ?", ids).Find(&congregations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load congregations", Details: err.Error(),
		})
		return nil, false
	}
	if len(congregations) != len(ids) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "REFERENCE_NOT_FOUND",
			Message: "One or more congregations were not found",
		})
		return nil, false
	}
	return congregations, true
}

// ListArrangementsHandler lists monthly arrangements
// @Summary		List arrangements
// @Tags			arrangements
// @Produce		json
// @Param			limit	query	int	false	"Page size"
// @Param			offset	query	int	false	"Page offset"
// @Security		BearerAuth
// @Success		200	{object}	ArrangementListResponse	"Arrangements, oldest first"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/arrangements [get]
func ListArrangementsHandler(c *gin.Context) {
	var total int64
	if err := storage.DB.Model(&models.Arrangement{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not count arrangements", Details: err.Error(),
		})
		return
	}

	q := storage.DB.Preload("Congregations").Order("year ASC, month ASC")
	page := entryPage(c)
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}

	var arrangements []models.Arrangement
	if err := q.Find(&arrangements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load arrangements", Details: err.Error(),
		})
		return
	}

	items := make([]ArrangementView, 0, len(arrangements))
	for _, a := range arrangements {
		items = append(items, newArrangementView(a))
	}
	c.JSON(http.StatusOK, ArrangementListResponse{Items: items, Total: total})
}

// GetArrangementHandler returns one arrangement
// @Summary		Get an arrangement
// @Tags			arrangements
// @Produce		json
// @Param			id	path	int	true	"Arrangement ID"
// @Security		BearerAuth
// @Success		200	{object}	ArrangementView			"Arrangement"
// @Failure		404	{object}	response.ErrorResponse	"Arrangement not found (NOT_FOUND)"
// @Router			/api/arrangements/{id} [get]
func GetArrangementHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var arrangement models.Arrangement
	if err := storage.DB.Preload("Congregations").First(&arrangement, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Arrangement not found",
		})
		return
	}
	c.JSON(http.StatusOK, newArrangementView(arrangement))
}

// CreateArrangementHandler creates an arrangement
// @Summary		Create an arrangement
// @Description	One arrangement per (year, month); all referenced congregations must exist. The plan and its links are written in one transaction.
// @Tags			arrangements
// @Accept			json
// @Produce		json
// @Param			arrangement	body	ArrangementRequest	true	"Arrangement data"
// @Security		BearerAuth
// @Success		201	{object}	ArrangementView			"Created arrangement"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, MONTH_EXISTS, REFERENCE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/arrangements [post]
func CreateArrangementHandler(c *gin.Context) {
	var req ArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Year and month are required",
			Details: err.Error(),
		})
		return
	}
	if req.Month < 1 || req.Month > 12 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Month must be between 1 and 12",
		})
		return
	}

	var existing models.Arrangement
	if err := storage.DB.Where("year = ? AND month = ?", req.Year, req.Month).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "MONTH_EXISTS",
			Message: "An arrangement for this year and month already exists",
		})
		return
	}

	congregations, ok := loadArrangementCongregations(c, req.Congregations)
	if !ok {
		return
	}

	arrangement := models.Arrangement{
		Year:          req.Year,
		Month:         req.Month,
		Congregations: congregations,
	}
	if err := storage.DB.Create(&arrangement).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not create arrangement", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, newArrangementView(arrangement))
}

// UpdateArrangementHandler updates an arrangement
// @Summary		Update an arrangement
// @Tags			arrangements
// @Accept			json
// @Produce		json
// @Param			id			path	int					true	"Arrangement ID"
// @Param			arrangement	body	ArrangementRequest	true	"Arrangement data"
// @Security		BearerAuth
// @Success		200	{object}	ArrangementView			"Updated arrangement"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, MONTH_EXISTS, REFERENCE_NOT_FOUND)"
// @Failure		404	{object}	response.ErrorResponse	"Arrangement not found (NOT_FOUND)"
// @Router			/api/arrangements/{id} [put]
func UpdateArrangementHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var arrangement models.Arrangement
	if err := storage.DB.First(&arrangement, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "Arrangement not found",
		})
		return
	}

	var req ArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Year and month are required",
			Details: err.Error(),
		})
		return
	}
	if req.Month < 1 || req.Month > 12 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Month must be between 1 and 12",
		})
		return
	}

	var other models.Arrangement
	if err := storage.DB.Where("year = ? AND month = ? AND id <> ?", req.Year, req.Month, id).First(&other).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "MONTH_EXISTS",
			Message: "Another arrangement for this year and month already exists",
		})
		return
	}

	congregations, ok := loadArrangementCongregations(c, req.Congregations)
	if !ok {
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&arrangement).Updates(map[string]interface{}{
			"year":  req.Year,
			"month": req.Month,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&arrangement).Association("Congregations").Replace(congregations)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update arrangement", Details: err.Error(),
		})
		return
	}

	storage.DB.Preload("Congregations").First(&arrangement, id)
	c.JSON(http.StatusOK, newArrangementView(arrangement))
}

// DeleteArrangementHandler removes an arrangement
// @Summary		Delete an arrangement
// @Tags			arrangements
// @Produce		json
// @Param			id	path	int	true	"Arrangement ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/arrangements/{id} [delete]
func DeleteArrangementHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		var arrangement models.Arrangement
		if err := tx.First(&arrangement, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if err := tx.Model(&arrangement).Association("Congregations").Clear(); err != nil {
			return err
		}
		return tx.Delete(&arrangement).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not delete arrangement", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Arrangement deleted"})
}
