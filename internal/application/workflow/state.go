package workflow

import (
	"go.temporal.io/sdk/log"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

// state is owned by a single workflow run. Only signal handling and the main
// coroutine touch it, and the workflow dispatcher never runs them in parallel.
type state struct {
	paymentID string
	status    payment.Status
	cancelled bool
	ledgerID  string
}

func newState(paymentID string) *state {
	return &state{paymentID: paymentID, status: payment.StatusPending}
}

func (s *state) applyStatus(logger log.Logger, u StatusUpdate) {
	if u.PaymentID != s.paymentID {
		logger.Warn("status update for another payment ignored", "paymentId", s.paymentID, "signalPaymentId", u.PaymentID)
		return
	}

	next, err := payment.ParseStatus(u.Status)
	if err != nil {
		logger.Warn("status update rejected", "paymentId", s.paymentID, "error", err)
		return
	}

	if next == payment.StatusPending || next == s.status {
		return
	}

	if s.status.IsFinal() {
		logger.Warn("status update after final status ignored", "paymentId", s.paymentID, "current", s.status, "requested", next)
		return
	}

	s.status = next
}

func (s *state) cancel() {
	s.cancelled = true
}

func (s *state) settled() bool {
	return s.status.IsFinal()
}

func (s *state) ready() bool {
	return s.cancelled || s.settled()
}

// resolve picks the outcome once ready() holds.
func (s *state) resolve(p Precedence) (Outcome, bool) {
	if s.cancelled && !(p == PrecedenceSettlement && s.settled()) {
		return OutcomeCancelled, true
	}
	if s.settled() {
		return Outcome(s.status), true
	}
	return "", false
}
