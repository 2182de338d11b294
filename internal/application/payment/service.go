package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	domainPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
)

type Service struct {
	Repo         domainPayment.Repository
	Bridge       *Bridge
	Orchestrator Orchestrator
	Recorder     contracts.EventRecorder
	Dedupe       contracts.Deduper
	Metrics      *metrics.Counters
	Logger       logging.Logger
	Precedence   workflow.Precedence

	// ConfirmationWindow overrides the workflow default when non-zero.
	ConfirmationWindow time.Duration
}

type CreateRequest struct {
	PaymentID   string
	CustomerID  string
	Description string
	Amount      decimal.Decimal
	Method      string
}

type UpdateRequest struct {
	Description *string
	Amount      *decimal.Decimal
	Method      *string
	Status      *string
}

// GatewayNotification is a status report from a payment gateway webhook.
type GatewayNotification struct {
	NotificationID string
	LedgerID       string
	Status         domainPayment.Status
	Source         string
	// GatewayPaymentID is stored on the record when present.
	GatewayPaymentID string
}

type NotificationResult string

const (
	ResultApplied      NotificationResult = "applied"
	ResultDuplicate    NotificationResult = "duplicate"
	ResultPending      NotificationResult = "pending"
	ResultAlreadyFinal NotificationResult = "already_final"
)

// Create validates the request at the edge. PIX payments are written to the
// ledger right away, credit card payments go through the workflow bridge.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domainPayment.Payment, error) {
	customerID, err := domainPayment.NormalizeCustomerID(req.CustomerID)
	if err != nil {
		return nil, err
	}
	req.CustomerID = customerID

	method, err := domainPayment.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	if err := domainPayment.ValidateAmount(method, req.Amount); err != nil {
		return nil, err
	}

	if req.PaymentID == "" {
		req.PaymentID = uuid.NewString()
	}

	var p *domainPayment.Payment
	switch method {
	case domainPayment.MethodPix:
		p, err = s.createPix(ctx, req)
	case domainPayment.MethodCreditCard:
		p, err = s.Bridge.Create(ctx, workflow.Input{
			PaymentID:     req.PaymentID,
			PaymentMethod: method,
			Amount:        req.Amount,
			CustomerID:    req.CustomerID,
			Description:   req.Description,
			Precedence:    s.Precedence,

			ConfirmationWindow: s.ConfirmationWindow,
		})
	}
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.IncCreated()
	}
	s.Logger.Info("payment created", map[string]any{
		"payment_id": p.ID,
		"method":     p.Method,
		"amount":     p.Amount.String(),
	})
	return p, nil
}

func (s *Service) createPix(ctx context.Context, req CreateRequest) (*domainPayment.Payment, error) {
	p, err := domainPayment.New(req.PaymentID, req.CustomerID, req.Description, req.Amount, domainPayment.MethodPix)
	if err != nil {
		return nil, err
	}

	stored, _, err := s.Repo.Create(ctx, p)
	return stored, err
}

func (s *Service) Get(ctx context.Context, id string) (*domainPayment.Payment, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, customerID, method string) ([]*domainPayment.Payment, error) {
	f := domainPayment.Filter{CustomerID: customerID}
	if bare, err := domainPayment.NormalizeCustomerID(customerID); err == nil {
		f.CustomerID = bare
	}
	if method != "" {
		m, err := domainPayment.ParseMethod(method)
		if err != nil {
			return nil, err
		}
		f.Method = m
	}
	return s.Repo.FindAll(ctx, f)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domainPayment.Payment, error) {
	current, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Method != nil && domainPayment.Method(*req.Method) != current.Method {
		return nil, domainPayment.ErrMethodImmutable
	}

	u := domainPayment.Update{Description: req.Description, Amount: req.Amount}
	if req.Status != nil {
		status, err := domainPayment.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		u.Status = &status
	}

	updated, err := s.Repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}

	if u.Status != nil && !current.Status.IsFinal() && updated.Status.IsFinal() {
		s.signalStatus(ctx, updated)
	}
	return updated, nil
}

// Cancel asks the workflow of a pending credit card payment to stop.
func (s *Service) Cancel(ctx context.Context, id string) error {
	p, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if p.Method != domainPayment.MethodCreditCard || p.Status.IsFinal() {
		return ErrNotCancellable
	}

	return s.Orchestrator.Signal(ctx, workflow.ID(p.IdempotencyKey), workflow.SignalCancel, nil)
}

func (s *Service) WorkflowStatus(ctx context.Context, id string) (string, error) {
	p, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if p.Method != domainPayment.MethodCreditCard {
		return "", ErrWorkflowNotFound
	}

	return s.Orchestrator.QueryString(ctx, workflow.ID(p.IdempotencyKey), workflow.QueryStatus)
}

// ApplyGatewayStatus writes the gateway status to the ledger and then signals
// the workflow with the same status. The ledger stays authoritative, so a
// failed signal is logged and does not fail the call.
func (s *Service) ApplyGatewayStatus(ctx context.Context, n GatewayNotification) (result NotificationResult, err error) {
	ctx, span := tracer.Start(ctx, "service.apply_gateway_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.id", n.LedgerID),
		attribute.String("gateway.source", n.Source),
		attribute.String("payment.status", string(n.Status)),
	)

	if s.Dedupe != nil && n.NotificationID != "" {
		key := n.Source + ":" + n.NotificationID
		seen, derr := s.Dedupe.Seen(ctx, key)
		switch {
		case derr != nil:
			s.Logger.Warn("webhook dedupe unavailable", map[string]any{"error": derr})
		case seen:
			return ResultDuplicate, nil
		default:
			// the gateway redelivers on error, so the key must not outlive a failed write
			defer func() {
				if err == nil {
					return
				}
				if ferr := s.Dedupe.Forget(context.WithoutCancel(ctx), key); ferr != nil {
					s.Logger.Error("webhook dedupe release failed", map[string]any{"key": key, "error": ferr})
				}
			}()
		}
	}

	if _, err := domainPayment.ParseStatus(string(n.Status)); err != nil {
		return "", err
	}

	var gatewayPaymentID *string
	if n.GatewayPaymentID != "" {
		gatewayPaymentID = &n.GatewayPaymentID
	}

	if n.Status == domainPayment.StatusPending {
		if gatewayPaymentID != nil {
			_, err = s.Repo.Update(ctx, n.LedgerID, domainPayment.Update{GatewayPaymentID: gatewayPaymentID})
		} else {
			_, err = s.Repo.FindByID(ctx, n.LedgerID)
		}
		if err != nil {
			return "", err
		}
		return ResultPending, nil
	}

	status := n.Status
	updated, err := s.Repo.Update(ctx, n.LedgerID, domainPayment.Update{Status: &status, GatewayPaymentID: gatewayPaymentID})
	result = ResultApplied
	switch {
	case errors.Is(err, domainPayment.ErrStatusFinal):
		s.Logger.Warn("gateway status ignored, ledger already final", map[string]any{
			"ledger_id": n.LedgerID,
			"requested": n.Status,
			"source":    n.Source,
		})
		result, err = ResultAlreadyFinal, nil
	case err != nil:
		return "", err
	}

	s.record(ctx, event.PaymentStatusReceivedPayload{
		PaymentID: n.LedgerID,
		Status:    string(n.Status),
		Source:    n.Source,
		Applied:   result == ResultApplied,
		At:        time.Now().UTC(),
	})

	if result == ResultApplied {
		s.signalStatus(ctx, updated)
	}
	return result, nil
}

func (s *Service) signalStatus(ctx context.Context, p *domainPayment.Payment) {
	if p.Method != domainPayment.MethodCreditCard || s.Orchestrator == nil {
		return
	}

	err := s.Orchestrator.Signal(ctx, workflow.ID(p.IdempotencyKey), workflow.SignalStatusUpdate, workflow.StatusUpdate{
		PaymentID: p.IdempotencyKey,
		Status:    string(p.Status),
	})
	if err != nil {
		s.Logger.Warn("workflow status signal failed", map[string]any{
			"ledger_id":  p.ID,
			"payment_id": p.IdempotencyKey,
			"status":     p.Status,
			"error":      err,
		})
	}
}

func (s *Service) record(ctx context.Context, payload event.PaymentStatusReceivedPayload) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(ctx, event.Event{Type: event.PaymentStatusReceived, Payload: payload}); err != nil {
		s.Logger.Error("outbox record failed", map[string]any{"ledger_id": payload.PaymentID, "error": err})
	}
}
