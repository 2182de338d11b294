package workflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

const (
	SignalStatusUpdate = "statusUpdate"
	SignalCancel       = "cancel"
	QueryStatus        = "getStatus"
	QueryLedgerID      = "getLedgerId"

	DefaultConfirmationWindow = 15 * time.Minute
	ExecutionTimeout          = time.Hour

	activityTimeout = 30 * time.Second
)

// Outcome is the terminal result of one payment workflow.
type Outcome string

const (
	OutcomePaid      Outcome = "PAID"
	OutcomeFailed    Outcome = "FAIL"
	OutcomeCancelled Outcome = "CANCELLED"
	OutcomeExpired   Outcome = "EXPIRED"
)

// Precedence decides what wins when a cancel and a final status are both
// pending at the same wake-up.
type Precedence string

const (
	PrecedenceCancel     Precedence = "CANCEL"
	PrecedenceSettlement Precedence = "SETTLEMENT"
)

type Input struct {
	PaymentID     string
	PaymentMethod payment.Method
	Amount        decimal.Decimal
	CustomerID    string
	Description   string
	Precedence    Precedence `json:",omitempty"`
	// ConfirmationWindow overrides DefaultConfirmationWindow when positive.
	ConfirmationWindow time.Duration `json:",omitempty"`
}

type StatusUpdate struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// ID is the workflow id for a payment.
func ID(paymentID string) string {
	return "payment-" + paymentID
}
