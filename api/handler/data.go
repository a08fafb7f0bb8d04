package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tablescout/models"
)

// EnvelopeLoader reads the last persisted scrape. *store.FileStore
// implements it.
type EnvelopeLoader interface {
	Load() (*models.Envelope, bool, error)
}

// Data returns a handler for GET /data: the last persisted envelope, a
// placeholder before the first successful scrape, or 500 when the stored
// data cannot be read.
func Data(st EnvelopeLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		env, ok, err := st.Load()
		if err != nil {
			slog.Error("reading stored data failed", "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   err.Error(),
				Message: "Error reading stored data.",
			})
			return
		}
		if !ok {
			c.JSON(http.StatusOK, models.NoDataResponse{
				Message:     "No data available. Please run /scrape first.",
				Count:       0,
				Restaurants: []models.Restaurant{},
			})
			return
		}
		c.JSON(http.StatusOK, env)
	}
}
