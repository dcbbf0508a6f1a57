package middleware

import (
	"context"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/pyroscope"
	"github.com/gin-gonic/gin"
	pyroscopego "github.com/grafana/pyroscope-go"
)

// PyroscopeMiddleware labels profiles taken during a request with its route
func PyroscopeMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Pyroscope.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		labels := pyroscope.Labels(map[string]string{
			"method":   c.Request.Method,
			"endpoint": c.FullPath(),
		})
		pyroscopego.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
