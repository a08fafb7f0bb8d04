// Package api wires the HTTP surface of tablescout.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tablescout/api/handler"
	"github.com/use-agent/tablescout/api/middleware"
	"github.com/use-agent/tablescout/cache"
	"github.com/use-agent/tablescout/config"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Harvester handler.Harvester
	Store     handler.EnvelopeLoader
	Cache     *cache.Cache

	// Pool is nil when no browser is running.
	Pool handler.PoolReporter

	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	/scrape: Auth (if enabled) → RateLimit
//
// ctx bounds the rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/", handler.Home(cfg.Provider))
	r.GET("/status", handler.Status(cfg.Provider, deps.Pool, deps.StartTime))

	read := r.Group("")
	scrape := r.Group("")
	if cfg.Auth.Enabled {
		read.Use(middleware.Auth(cfg.Auth.APIKeys))
		scrape.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	scrape.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	read.GET("/data", handler.Data(deps.Store))
	scrape.GET("/scrape", handler.Scrape(deps.Harvester, deps.Cache))

	return r
}
