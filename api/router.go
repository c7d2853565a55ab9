package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/workana-scraper/api/handler"
	"github.com/use-agent/workana-scraper/api/middleware"
	"github.com/use-agent/workana-scraper/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS (allow all)
//	Scrape:  Auth (if keys configured) → RateLimit
//
// Health endpoints stay outside auth so monitoring probes always work.
// /api/debug is mounted only in debug mode.
func NewRouter(runner handler.Runner, notifier handler.Notifier, cfg *config.Config, driver string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.Default())

	r.GET("/", handler.Root())
	r.GET("/health", handler.Health())

	api := r.Group("/api")
	api.GET("/health", handler.Health())
	if cfg.Server.Debug {
		api.GET("/debug", handler.Debug(cfg, driver))
	}

	scrape := handler.Scrape(runner, notifier)
	guards := []gin.HandlerFunc{
		middleware.Auth(cfg.Auth.APIKeys),
		middleware.RateLimit(cfg.RateLimit),
	}
	r.GET("/scrape", append(guards, scrape)...)
	api.GET("/scrape", append(guards, scrape)...)

	return r
}
