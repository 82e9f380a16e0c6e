package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ytsub/internal/models/request_models"
	"ytsub/internal/services"
	"ytsub/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
	logger         *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateCheckout creates a PENDING order for the authenticated user and
// returns the signed field set for the gateway redirect form.
func (p *PaymentController) CreateCheckout(c *gin.Context) {
	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, "user_id is required")
		return
	}
	accountID, err := uuid.Parse(userID)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid user id")
		return
	}

	checkout, err := p.paymentService.CreateCheckoutForPlan(c.Request.Context(), accountID, request.PlanCode)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, checkout, "Checkout created")
}

// HandleNotification is the gateway's server-to-server callback. It answers
// in the gateway's plain-text protocol ("1|OK" / "0|<reason>"), never the
// JSON envelope, and always with HTTP 200 so the gateway's retry logic only
// keys off the body.
func (p *PaymentController) HandleNotification(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, services.OutcomeMissingReference.Wire())
		return
	}

	n := request_models.ParseGatewayNotification(c.Request.PostForm)
	outcome := p.paymentService.HandleNotification(c.Request.Context(), n)

	c.String(http.StatusOK, outcome.Wire())
}

// Reconcile repairs a single order; meant to be hit by cron or an operator.
func (p *PaymentController) Reconcile(c *gin.Context) {
	result, err := p.paymentService.Reconcile(c.Request.Context(), c.Param("tradeRef"))
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OrderResult is the customer-facing lookup the gateway redirects back to.
// Read-only.
func (p *PaymentController) OrderResult(c *gin.Context) {
	tradeRef := c.Query("MerchantTradeNo")
	if tradeRef == "" {
		tradeRef = c.PostForm("MerchantTradeNo")
	}

	result, err := p.paymentService.OrderResult(c.Request.Context(), tradeRef)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
