package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tablescout/models"
)

// Home returns a handler for GET / describing the service.
func Home(provider string) gin.HandlerFunc {
	resp := models.HomeResponse{
		Message: "Zomato Scraper API",
		Endpoints: map[string]string{
			"/scrape": "Scrape latest data from Zomato",
			"/data":   "Get the last scraped data",
			"/status": "Get API status",
		},
		Note: fmt.Sprintf("Using the %s provider (%s)", provider, MethodName(provider)),
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
