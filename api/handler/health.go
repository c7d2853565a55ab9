package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/models"
)

// ServiceName identifies the service in health responses.
const ServiceName = "workana-scraper"

// Root returns a handler for GET /.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.RootResponse{
			Message: "Workana scraper API is running",
			Status:  "running",
		})
	}
}

// Health returns a handler for GET /health and GET /api/health.
// It never touches the browser so probes stay cheap.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
		})
	}
}

// Debug returns a handler for GET /api/debug. Secrets are reported as
// SET or MISSING only.
func Debug(cfg *config.Config, driver string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.DebugResponse{
			Status:      "debug",
			Environment: cfg.EnvStatus(),
			Browser: models.BrowserInfo{
				Driver:   driver,
				Headless: cfg.Browser.Headless,
			},
		})
	}
}
