package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type PaymentService interface {
	Create(ctx context.Context, req appPayment.CreateRequest) (*payment.Payment, error)
	Get(ctx context.Context, id string) (*payment.Payment, error)
	List(ctx context.Context, customerID, method string) ([]*payment.Payment, error)
	Update(ctx context.Context, id string, req appPayment.UpdateRequest) (*payment.Payment, error)
	Cancel(ctx context.Context, id string) error
	WorkflowStatus(ctx context.Context, id string) (string, error)
	ApplyGatewayStatus(ctx context.Context, n appPayment.GatewayNotification) (appPayment.NotificationResult, error)
}

type PaymentHandler struct {
	Service PaymentService
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.Service.Create(c.Request.Context(), appPayment.CreateRequest{
		PaymentID:   req.PaymentID,
		CustomerID:  req.CPF,
		Description: req.Description,
		Amount:      req.Amount,
		Method:      req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(p))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(p))
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		customerID = c.Query("cpf")
	}

	payments, err := h.Service.List(c.Request.Context(), customerID, c.Query("paymentMethod"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.Service.Update(c.Request.Context(), c.Param("id"), appPayment.UpdateRequest{
		Description: req.Description,
		Amount:      req.Amount,
		Method:      req.PaymentMethod,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(p))
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	if err := h.Service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "cancel_requested"})
}

func (h *PaymentHandler) WorkflowStatus(c *gin.Context) {
	status, err := h.Service.WorkflowStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}
