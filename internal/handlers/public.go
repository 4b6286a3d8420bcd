package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"talkplanner/internal/dates"
	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const (
	upcomingTalksCacheKey = "public:upcoming_talks"
	upcomingTalksCacheTTL = 5 * time.Minute
	upcomingTalksLimit    = 4
)

type PublicTalkView struct {
	Date         string `json:"date"`
	Talk         string `json:"talk"`
	Speaker      string `json:"speaker,omitempty"`
	Congregation string `json:"congregation,omitempty"`
}

type PublicTalksResponse struct {
	Items []PublicTalkView `json:"items"`
}

// GetUpcomingTalksHandler returns the next talks held at the local hall
// @Summary		Upcoming talks
// @Description	The next four talks held locally (own speakers or visiting ones), today included. Unauthenticated; served from cache for a few minutes.
// @Tags			public
// @Produce		json
// @Success		200	{object}	PublicTalksResponse		"Upcoming talks, soonest first"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/public/upcoming-talks [get]
func GetUpcomingTalksHandler(c *gin.Context) {
	ctx := context.Background()
	if storage.RedisClient != nil {
		if cached, err := storage.RedisClient.Get(ctx, upcomingTalksCacheKey).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		} else if err != redis.Nil {
			fmt.Println("redis unavailable, serving from database:", err)
		}
	}

	today := dates.Today(time.Now())
	var entries []models.ScheduleEntry
	err := storage.DB.
		Preload("Talk").Preload("Speaker").Preload("Congregation").
		Where("date >= ? AND kind IN ?", today, []string{models.KindLocal, models.KindReceived}).
		Order("date ASC").
		Limit(upcomingTalksLimit).
		Find(&entries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load upcoming talks", Details: err.Error(),
		})
		return
	}

	items := make([]PublicTalkView, 0, len(entries))
	for _, e := range entries {
		view := PublicTalkView{Date: dates.Normalize(e.Date)}
		if e.Talk != nil {
			view.Talk = fmt.Sprintf("#%d - %s", e.Talk.Number, e.Talk.Topic)
		}
		if e.Speaker != nil {
			view.Speaker = e.Speaker.Name
		}
		if e.Congregation != nil {
			view.Congregation = e.Congregation.Name
		}
		items = append(items, view)
	}
	resp := PublicTalksResponse{Items: items}

	if storage.RedisClient != nil {
		if payload, err := json.Marshal(resp); err == nil {
			storage.RedisClient.Set(ctx, upcomingTalksCacheKey, payload, upcomingTalksCacheTTL)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// InvalidateUpcomingTalksCache drops the public feed cache. Called after any
// entry mutation so the feed never shows stale rows longer than one request.
func InvalidateUpcomingTalksCache() {
	if storage.RedisClient == nil {
		return
	}
	storage.RedisClient.Del(context.Background(), upcomingTalksCacheKey)
}
