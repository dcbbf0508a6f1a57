package api

import (
	"github.com/flexprice/leasebill/internal/api/cron"
	v1 "github.com/flexprice/leasebill/internal/api/v1"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/metrics"
	"github.com/flexprice/leasebill/internal/rest/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health      *v1.HealthHandler
	CronBilling *cron.BillingHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, billingMetrics *metrics.BillingMetrics) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.PyroscopeMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)
	router.POST("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(billingMetrics.Registry(), promhttp.HandlerOpts{})))

	cronGroup := router.Group("/cron")
	cronGroup.Use(middleware.CronAuthMiddleware(cfg, logger))
	{
		billing := cronGroup.Group("/billing")
		billing.POST("/run", handlers.CronBilling.RunBilling)
		billing.POST("/overdue", handlers.CronBilling.SweepOverdue)
		billing.POST("/welcome", handlers.CronBilling.SweepWelcome)
		billing.GET("/runs/latest", handlers.CronBilling.GetLatestRun)
	}

	return router
}
