package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tablescout/models"
)

// Version is reported by GET /status.
const Version = "0.1.0"

// PoolReporter exposes browser pool utilisation. *scraper.Scraper
// implements it.
type PoolReporter interface {
	Stats() models.PoolStats
}

// MethodName describes a provider mode for humans.
func MethodName(provider string) string {
	switch provider {
	case "http":
		return "static HTTP fetch"
	case "browser":
		return "headless browser session"
	default:
		return "static HTTP with browser escalation"
	}
}

// Status returns a handler for GET /status. pool may be nil when no browser
// is running.
func Status(provider string, pool PoolReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.StatusResponse{
			Status:    "active",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Method:    MethodName(provider),
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Version:   Version,
		}
		if pool != nil {
			stats := pool.Stats()
			resp.Pool = &stats
		}
		c.JSON(http.StatusOK, resp)
	}
}
