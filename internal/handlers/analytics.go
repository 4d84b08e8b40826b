package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	metrics, err := h.analytics.Dashboard(db, projectID, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// Productivity defaults to the last 30 days grouped by week.
func (h *AnalyticsHandler) Productivity(c *gin.Context) {
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	report, err := h.analytics.Productivity(db, projectID, caller.ID,
		c.DefaultQuery("period", "30d"), c.DefaultQuery("group_by", "week"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AnalyticsHandler) Contributions(c *gin.Context) {
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	report, err := h.analytics.Contributions(db, projectID, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
