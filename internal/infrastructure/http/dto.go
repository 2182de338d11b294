package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type createPaymentRequest struct {
	PaymentID     string          `json:"paymentId"`
	CPF           string          `json:"cpf" binding:"required"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
}

type updatePaymentRequest struct {
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod *string          `json:"paymentMethod"`
	Status        *string          `json:"status"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"paymentId"`
	CPF           string    `json:"cpf"`
	Description   string    `json:"description,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	GatewayID     string    `json:"gatewayId,omitempty"`
	GatewayPayID  string    `json:"gatewayPaymentId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		PaymentID:     p.IdempotencyKey,
		CPF:           p.CustomerID,
		Description:   p.Description,
		Amount:        p.Amount.InexactFloat64(),
		PaymentMethod: string(p.Method),
		Status:        string(p.Status),
		GatewayID:     p.GatewayReference,
		GatewayPayID:  p.GatewayPaymentID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
