package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"snaplink/internal/metrics"
	"snaplink/internal/stats"
)

// StatsController serves the dashboard's aggregate query surface. Reads are
// eventually consistent: the click recorder applies increments
// asynchronously.
type StatsController struct {
	store stats.Store
	m     *metrics.Metrics
}

func NewStatsController(store stats.Store, m *metrics.Metrics) *StatsController {
	return &StatsController{store: store, m: m}
}

// Stats handles GET /api/redirect/stats - aggregate counters for the
// dashboard. Query params: slug (empty for the global series), hours
// (observation window, default 24), top (top-performing rows, default 10).
func (sc *StatsController) Stats(c *gin.Context) {
	slug := c.Query("slug")

	hours := 24
	if hoursStr := c.Query("hours"); hoursStr != "" {
		if parsed, err := strconv.Atoi(hoursStr); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	limit := 10
	if topStr := c.Query("top"); topStr != "" {
		if parsed, err := strconv.Atoi(topStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	ctx := c.Request.Context()

	counters, err := sc.store.Query(ctx, slug, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query click stats"})
		return
	}

	resp := gin.H{"counters": counters}

	// The per-slug view doesn't need a leaderboard
	if slug == stats.GlobalSlug {
		top, err := sc.store.TopPerforming(ctx, limit, since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query top slugs"})
			return
		}
		resp["top"] = top
	}

	c.JSON(http.StatusOK, resp)
}

// Metrics handles GET /api/metrics - internal counters for an external
// collector
func (sc *StatsController) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, sc.m.Snapshot())
}
