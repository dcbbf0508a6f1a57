package cron

import (
	"net/http"

	"github.com/flexprice/leasebill/internal/api/dto"
	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/service"
	"github.com/gin-gonic/gin"
)

// BillingHandler exposes the billing run and the notification sweeps to
// external schedulers
type BillingHandler struct {
	billingRunService   service.BillingRunService
	notificationService service.NotificationService
	config              *config.Configuration
	logger              *logger.Logger
}

func NewBillingHandler(
	billingRunService service.BillingRunService,
	notificationService service.NotificationService,
	config *config.Configuration,
	logger *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		billingRunService:   billingRunService,
		notificationService: notificationService,
		config:              config,
		logger:              logger,
	}
}

// RunBilling bills every lease due on the cycle date.
// Per lease failures are in the report, an error means the run never started.
func (h *BillingHandler) RunBilling(c *gin.Context) {
	var req dto.RunBillingRequest
	if !h.bind(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	runReq, err := req.ToRunRequest(h.config.Billing.Location())
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.WithContext(c.Request.Context()).Infow("billing run requested",
		"cycle_date", req.CycleDate,
		"tenant_id", req.TenantID,
		"dry_run", req.DryRun)

	report, err := h.billingRunService.Run(c.Request.Context(), runReq)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBillingRunResponse(report))
}

func (h *BillingHandler) SweepOverdue(c *gin.Context) {
	var req dto.SweepOverdueRequest
	if !h.bind(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	asOf, err := req.AsOfTime(h.config.Billing.Location())
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.notificationService.SweepOverdue(c.Request.Context(), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{SweepResult: result})
}

func (h *BillingHandler) SweepWelcome(c *gin.Context) {
	result, err := h.notificationService.SweepWelcome(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{SweepResult: result})
}

// GetLatestRun returns the newest persisted report, tenant_id narrows the scope
func (h *BillingHandler) GetLatestRun(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		tenantID = h.config.Billing.TenantID
	}

	report, err := h.billingRunService.GetLatestRun(c.Request.Context(), tenantID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBillingRunResponse(report))
}

// bind reads an optional JSON body, an empty body keeps the defaults
func (h *BillingHandler) bind(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Errorw("failed to parse request parameters", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}
