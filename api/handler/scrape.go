package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tablescout/cache"
	"github.com/use-agent/tablescout/harvest"
	"github.com/use-agent/tablescout/models"
)

// Harvester runs one scrape. *harvest.Harvester implements it.
type Harvester interface {
	Run(ctx context.Context) *harvest.Run
	Provider() string
	TargetURL() string
}

// Scrape returns a handler for GET /scrape.
//
// Flow:
//  1. If max_age (ms) is given, serve a cached success younger than that.
//  2. Harvest: fetch, extract, persist, notify.
//  3. Success → 200 with the listing; failure → 500 with the reason.
func Scrape(h Harvester, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Cache lookup ────────────────────────────────────────
		maxAge, _ := strconv.Atoi(c.Query("max_age"))
		cacheKey := cache.Key(h.TargetURL(), h.Provider())
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = &models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 2. Harvest ─────────────────────────────────────────────
		run := h.Run(c.Request.Context())

		if !run.Result.OK() {
			respondFailure(c, run)
			return
		}

		// ── 3. Respond ─────────────────────────────────────────────
		env := run.Envelope()
		resp := &models.ScrapeResponse{
			Success:     true,
			Message:     fmt.Sprintf("Successfully scraped %d restaurants", env.Count),
			Count:       env.Count,
			LastUpdated: env.LastUpdated,
			Restaurants: env.Restaurants,
			Provider:    run.Provider,
			RunID:       run.ID,
			Timing:      &run.Timing,
		}

		if cc != nil {
			cc.Set(cacheKey, resp)
			if maxAge > 0 {
				out := *resp
				out.CacheStatus = "miss"
				c.JSON(http.StatusOK, out)
				return
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondFailure writes the 500 failure envelope for a failed run.
func respondFailure(c *gin.Context, run *harvest.Run) {
	se := run.Result.Err()
	c.JSON(http.StatusInternalServerError, models.ScrapeFailure{
		Success:   false,
		Error:     se.Message,
		Message:   failureMessage(se.Code),
		ErrorCode: se.Code,
		Provider:  run.Provider,
		RunID:     run.ID,
		Timing:    &run.Timing,
	})
}

// failureMessage explains a failure code to the caller.
func failureMessage(code string) string {
	switch code {
	case models.ErrCodeInternal:
		return "An unexpected error occurred during scraping."
	case models.ErrCodeStorage:
		return "Scraping succeeded but the results could not be saved."
	case models.ErrCodeTimeout:
		return "Scraping timed out. The listing site may be slow or blocking requests."
	default:
		return "Scraping failed. Zomato's website structure may have changed."
	}
}
