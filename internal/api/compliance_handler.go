package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"alcyxob/endurance-planner/internal/service"
)

type ComplianceHandler struct {
	complianceService service.ComplianceService
}

func NewComplianceHandler(complianceService service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// Readiness godoc
// @Summary Race readiness score for the active plan
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Param raceDate query string false "Override race date (YYYY-MM-DD)"
// @Success 200 {object} compliance.ReadinessResult
// @Router /compliance/readiness [get]
func (h *ComplianceHandler) Readiness(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	raceDate, ok := optionalDateQuery(c, "raceDate")
	if !ok {
		return
	}
	result, err := h.complianceService.Readiness(c.Request.Context(), userID, raceDate)
	if err != nil {
		logrus.WithError(err).Error("readiness failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to compute readiness")
		return
	}
	c.JSON(http.StatusOK, result)
}

// WeeklyComparison godoc
// @Summary Planned versus completed, day by day, for one calendar week
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Param weekStart query string false "Any date in the week (YYYY-MM-DD), defaults to today"
// @Success 200 {array} compliance.WeeklyComparison
// @Router /compliance/weekly [get]
func (h *ComplianceHandler) WeeklyComparison(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	weekStart, ok := optionalDateQuery(c, "weekStart")
	if !ok {
		return
	}
	days, err := h.complianceService.WeeklyComparison(c.Request.Context(), userID, weekStart)
	if err != nil {
		logrus.WithError(err).Error("weekly comparison failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to compare week")
		return
	}
	c.JSON(http.StatusOK, days)
}

func optionalDateQuery(c *gin.Context, name string) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, true
	}
	t, err := parseDate(name, v)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return t, true
}
