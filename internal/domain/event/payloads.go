package event

import "time"

type PaymentStatusNotifiedPayload struct {
	PaymentID      string    `json:"payment_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	CustomerID     string    `json:"customer_id"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type PaymentStatusReceivedPayload struct {
	PaymentID string    `json:"payment_id"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Applied   bool      `json:"applied"`
	At        time.Time `json:"at"`
}
