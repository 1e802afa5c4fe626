package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/service"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type ActivityRequest struct {
	ExternalID      string   `json:"externalId"`
	Source          string   `json:"source"`
	Date            string   `json:"date" binding:"required"`
	Sport           string   `json:"sport"`
	Title           string   `json:"title"`
	DurationMinutes float64  `json:"durationMinutes" binding:"gte=0"`
	AvgPaceSecKm    *float64 `json:"avgPaceSecKm" binding:"omitempty,gt=0"`
	AvgPowerWatts   *float64 `json:"avgPowerWatts" binding:"omitempty,gt=0"`
}

type RecordActivitiesRequest struct {
	Activities []ActivityRequest `json:"activities" binding:"required,min=1,dive"`
}

type RecordActivitiesResponse struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}

// Record godoc
// @Summary Ingest completed activities
// @Description Activities carrying an externalId already seen for this athlete are ignored.
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activities body RecordActivitiesRequest true "Completed activities"
// @Success 201 {object} RecordActivitiesResponse
// @Failure 400 {object} gin.H "Invalid activity"
// @Router /activities [post]
func (h *ActivityHandler) Record(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RecordActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	batch := make([]domain.CompletedActivity, 0, len(req.Activities))
	for _, a := range req.Activities {
		batch = append(batch, domain.CompletedActivity{
			ExternalID:      a.ExternalID,
			Source:          a.Source,
			Date:            a.Date,
			Sport:           domain.Sport(a.Sport),
			Title:           a.Title,
			DurationMinutes: a.DurationMinutes,
			AvgPaceSecKm:    a.AvgPaceSecKm,
			AvgPowerWatts:   a.AvgPowerWatts,
		})
	}

	stored, err := h.activityService.Record(c.Request.Context(), userID, batch)
	if err != nil {
		if errors.Is(err, service.ErrInvalidActivity) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		logrus.WithError(err).Error("record activities failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to store activities")
		return
	}
	c.JSON(http.StatusCreated, RecordActivitiesResponse{Received: len(batch), Stored: stored})
}

func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}
	activities, err := h.activityService.List(c.Request.Context(), userID, from, to)
	if err != nil {
		logrus.WithError(err).Error("list activities failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to list activities")
		return
	}
	if activities == nil {
		activities = []domain.CompletedActivity{}
	}
	c.JSON(http.StatusOK, activities)
}
