package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/mercadopago"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/stripe"
)

const maxWebhookBody = 64 << 10

type MercadoPagoAPI interface {
	PaymentInfo(ctx context.Context, id string) (mercadopago.PaymentInfo, error)
}

type StripeWebhookParser interface {
	ParseWebhook(payload []byte, signature string) (stripe.Notification, error)
}

// WebhookHandler accepts gateway notifications. Mercado Pago retries on any
// non-2xx answer, so processing errors are reported in the body with 200.
type WebhookHandler struct {
	Service     PaymentService
	MercadoPago MercadoPagoAPI
	Stripe      StripeWebhookParser
	Logger      *zap.Logger
}

func (h *WebhookHandler) HandleMercadoPago(c *gin.Context) {
	var n mercadopago.WebhookNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	if !n.IsPayment() {
		h.Logger.Info("ignoring non-payment webhook", zap.String("type", n.Type))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	info, err := h.MercadoPago.PaymentInfo(ctx, n.Data.ID)
	if err != nil {
		h.Logger.Error("mercadopago payment lookup failed", zap.String("gateway_payment_id", n.Data.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	if info.ExternalReference == "" {
		h.Logger.Warn("payment without external_reference", zap.String("gateway_payment_id", n.Data.ID))
		c.JSON(http.StatusOK, gin.H{"status": "no_reference"})
		return
	}

	status := mercadopago.MapStatus(info.Status)
	result, err := h.Service.ApplyGatewayStatus(ctx, appPayment.GatewayNotification{
		NotificationID: n.Data.ID + ":" + info.Status,
		LedgerID:       info.ExternalReference,
		Status:         status,
		Source:         "mercadopago",

		GatewayPaymentID: n.Data.ID,
	})
	if err != nil {
		h.Logger.Error("webhook processing failed",
			zap.String("ledger_id", info.ExternalReference),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	h.Logger.Info("payment status received",
		zap.String("ledger_id", info.ExternalReference),
		zap.String("status", string(status)),
		zap.String("result", string(result)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "processed", "result": result})
}

func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	n, err := h.Stripe.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	if !n.Handled {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if n.LedgerID == "" {
		h.Logger.Warn("checkout session without ledger reference", zap.String("event_id", n.EventID))
		c.JSON(http.StatusOK, gin.H{"status": "no_reference"})
		return
	}

	result, err := h.Service.ApplyGatewayStatus(c.Request.Context(), appPayment.GatewayNotification{
		NotificationID: n.EventID,
		LedgerID:       n.LedgerID,
		Status:         n.Status,
		Source:         "stripe",

		GatewayPaymentID: n.PaymentIntentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "result": result})
}
