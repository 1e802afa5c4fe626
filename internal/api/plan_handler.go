package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type ThresholdsRequest struct {
	BikeFTPWatts         *float64 `json:"bikeFtpWatts" binding:"omitempty,gt=0"`
	RunThresholdPaceSecK *float64 `json:"runThresholdPaceSecKm" binding:"omitempty,gt=0"`
	SwimCSSSec100m       *float64 `json:"swimCssSec100m" binding:"omitempty,gt=0"`
}

type StartPlanRequest struct {
	Name           string            `json:"name"`
	RaceType       string            `json:"raceType" binding:"required"`
	RaceName       string            `json:"raceName"`
	RaceDate       string            `json:"raceDate" binding:"required"` // YYYY-MM-DD
	StartDate      string            `json:"startDate"`                   // YYYY-MM-DD, defaults to today
	Experience     string            `json:"experience"`
	MaxWeeklyHours float64           `json:"maxWeeklyHours" binding:"gte=0"`
	RestDay        string            `json:"restDay"`
	LongRunDay     string            `json:"longRunDay"`
	BrickDays      []string          `json:"brickDays"`
	Thresholds     ThresholdsRequest `json:"thresholds"`
	Preferences    string            `json:"preferences"`
}

type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ArchiveResponse struct {
	URL string `json:"url"`
}

// StartPlan godoc
// @Summary Start generating a training plan for a race
// @Description Validates the athlete profile and synthesizes the plan in the background. Poll GET /plans/{planId} for the outcome.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body StartPlanRequest true "Race and athlete profile"
// @Success 202 {object} domain.TrainingPlan
// @Failure 400 {object} gin.H "Invalid profile or race date"
// @Failure 409 {object} gin.H "Generation already running"
// @Failure 503 {object} gin.H "Shutting down"
// @Router /plans [post]
func (h *PlanHandler) StartPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req StartPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.StartPlan(c.Request.Context(), userID, in)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, plan)
}

func (r StartPlanRequest) toInput() (service.StartPlanInput, error) {
	in := service.StartPlanInput{
		Name:           strings.TrimSpace(r.Name),
		RaceType:       r.RaceType,
		RaceName:       strings.TrimSpace(r.RaceName),
		Experience:     r.Experience,
		MaxWeeklyHours: r.MaxWeeklyHours,
		RestDay:        time.Monday,
		LongRunDay:     time.Sunday,
		Thresholds: domain.Thresholds{
			BikeFTPWatts:         r.Thresholds.BikeFTPWatts,
			RunThresholdPaceSecK: r.Thresholds.RunThresholdPaceSecK,
			SwimCSSSec100m:       r.Thresholds.SwimCSSSec100m,
		},
		Preferences: strings.TrimSpace(r.Preferences),
	}

	var err error
	if in.RaceDate, err = parseDate("raceDate", r.RaceDate); err != nil {
		return in, err
	}
	if r.StartDate != "" {
		if in.StartDate, err = parseDate("startDate", r.StartDate); err != nil {
			return in, err
		}
	}
	if r.RestDay != "" {
		if in.RestDay, err = parseWeekday("restDay", r.RestDay); err != nil {
			return in, err
		}
	}
	if r.LongRunDay != "" {
		if in.LongRunDay, err = parseWeekday("longRunDay", r.LongRunDay); err != nil {
			return in, err
		}
	}
	for _, d := range r.BrickDays {
		wd, err := parseWeekday("brickDays", d)
		if err != nil {
			return in, err
		}
		in.BrickDays = append(in.BrickDays, wd)
	}
	return in, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(planner.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}

func parseWeekday(field, value string) (time.Weekday, error) {
	wd, ok := domain.ParseWeekday(value)
	if !ok {
		return 0, fmt.Errorf("%s: unknown weekday %q", field, value)
	}
	return wd, nil
}

// ListPlans godoc
// @Summary List the athlete's plans, newest first
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TrainingPlan
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListPlans(c.Request.Context(), userID)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.TrainingPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListSessions godoc
// @Summary List a plan's sessions, optionally within a date range
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {array} domain.Session
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId}/sessions [get]
func (h *PlanHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}
	sessions, err := h.planService.ListSessions(c.Request.Context(), userID, planID, from, to)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *PlanHandler) ArchiveURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	url, err := h.planService.ArchiveURL(c.Request.Context(), userID, planID)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, ArchiveResponse{URL: url})
}

// UpdateSessionStatus godoc
// @Summary Mark a session as done, skipped, missed or planned
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param status body UpdateSessionStatusRequest true "New status"
// @Success 200 {object} domain.Session
// @Failure 400 {object} gin.H "Invalid status"
// @Failure 404 {object} gin.H "Session not found"
// @Router /sessions/{sessionId}/status [patch]
func (h *PlanHandler) UpdateSessionStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}
	var req UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	status := domain.SessionStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	session, err := h.planService.UpdateSessionStatus(c.Request.Context(), userID, sessionID, status)
	if err != nil {
		h.writePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *PlanHandler) writePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrInvalidRaceDate),
		errors.Is(err, service.ErrRaceTooFar),
		errors.Is(err, service.ErrInvalidStatus):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGenerationInProgress):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrArchiveUnavailable), errors.Is(err, service.ErrShuttingDown):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("plan request failed")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// dateRangeQuery reads optional from/to query parameters, answering 400 on malformed dates.
func dateRangeQuery(c *gin.Context) (string, string, bool) {
	var out [2]string
	for i, name := range []string{"from", "to"} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		t, err := parseDate(name, v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return "", "", false
		}
		out[i] = t.Format(planner.DateLayout)
	}
	if out[0] != "" && out[1] != "" && out[0] > out[1] {
		abortWithError(c, http.StatusBadRequest, "from must not be after to")
		return "", "", false
	}
	return out[0], out[1], true
}
