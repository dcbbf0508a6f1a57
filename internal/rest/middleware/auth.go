package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware rejects cron calls without the configured API key.
// With no key configured the routes are left open for in cluster schedulers.
func CronAuthMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	expected := []byte(cfg.Server.CronAPIKey)
	header := cfg.Server.CronKeyHeader
	if header == "" {
		header = "x-api-key"
	}

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		provided := c.GetHeader(header)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			logger.Debugw("rejected cron request", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
