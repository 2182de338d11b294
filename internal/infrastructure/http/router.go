package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
)

type RouterDeps struct {
	Payments *PaymentHandler
	Webhooks *WebhookHandler
	Metrics  *metrics.Counters
	Logger   *zap.Logger
	// Limiter guards the public payment API. Webhooks are not limited.
	Limiter *RateLimiter
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, d.Metrics.Snapshot())
	})

	api := r.Group("/api")

	payments := api.Group("/payment")
	if d.Limiter != nil {
		payments.Use(d.Limiter.Middleware())
	}
	payments.POST("", d.Payments.CreatePayment)
	payments.GET("", d.Payments.ListPayments)
	payments.GET("/:id", d.Payments.GetPayment)
	payments.PUT("/:id", d.Payments.UpdatePayment)
	payments.POST("/:id/cancel", d.Payments.CancelPayment)
	payments.GET("/:id/workflow-status", d.Payments.WorkflowStatus)

	if d.Webhooks != nil {
		webhooks := api.Group("/webhook")
		if d.Webhooks.MercadoPago != nil {
			webhooks.POST("/mercadopago", d.Webhooks.HandleMercadoPago)
		}
		if d.Webhooks.Stripe != nil {
			webhooks.POST("/stripe", d.Webhooks.HandleStripe)
		}
	}

	return r
}
