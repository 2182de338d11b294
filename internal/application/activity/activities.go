package activity

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/temporal"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
)

// Application error types that the workflow retry policy never retries.
const (
	ErrTypeValidation = "ValidationError"
	ErrTypeNotFound   = "NotFoundError"
)

// RecordInput is what CreateRecord needs to write a PENDING ledger entry.
// IdempotencyKey makes retried creates return the first record.
type RecordInput struct {
	IdempotencyKey string
	CustomerID     string
	Description    string
	Amount         decimal.Decimal
	Method         payment.Method
}

type Activities struct {
	Ledger   payment.Repository
	Gateway  contracts.Gateway
	Recorder contracts.EventRecorder
	Logger   logging.Logger
}

func (a *Activities) CreateRecord(ctx context.Context, in RecordInput) (string, error) {
	p, err := payment.New(in.IdempotencyKey, in.CustomerID, in.Description, in.Amount, in.Method)
	if err != nil {
		return "", temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	}

	stored, created, err := a.Ledger.Create(ctx, p)
	if err != nil {
		return "", err
	}

	if !created {
		a.Logger.Info("ledger record already exists", map[string]any{
			"payment_id":      in.IdempotencyKey,
			"ledger_id":       stored.ID,
			"idempotency_hit": true,
		})
	}

	return stored.ID, nil
}

// CreatePreference asks the gateway for a checkout preference and stores its
// reference. A record that already carries a reference is returned as is.
func (a *Activities) CreatePreference(ctx context.Context, ledgerID string) (string, error) {
	p, err := a.find(ctx, ledgerID)
	if err != nil {
		return "", err
	}

	if p.GatewayReference != "" {
		return p.GatewayReference, nil
	}

	pref, err := a.Gateway.CreatePreference(ctx, p)
	if err != nil {
		return "", err
	}

	if _, err := a.Ledger.Update(ctx, ledgerID, payment.Update{GatewayReference: &pref.ID}); err != nil {
		return "", err
	}

	a.Logger.Info("gateway preference created", map[string]any{
		"ledger_id":     ledgerID,
		"preference_id": pref.ID,
		"checkout_url":  pref.CheckoutURL,
	})

	return pref.ID, nil
}

// UpdateStatus writes status to the ledger. A record that already reached a
// different final status is left untouched and the call succeeds.
func (a *Activities) UpdateStatus(ctx context.Context, ledgerID string, status payment.Status) error {
	if _, err := payment.ParseStatus(string(status)); err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	}

	_, err := a.Ledger.Update(ctx, ledgerID, payment.Update{Status: &status})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrStatusFinal):
		a.Logger.Warn("ledger status already final", map[string]any{
			"ledger_id": ledgerID,
			"requested": status,
			"error":     err,
		})
		return nil
	case errors.Is(err, payment.ErrPaymentNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	default:
		return err
	}
}

func (a *Activities) GetStatus(ctx context.Context, ledgerID string) (payment.Status, error) {
	p, err := a.find(ctx, ledgerID)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// Notify records the terminal outcome for downstream publishers.
func (a *Activities) Notify(ctx context.Context, ledgerID string, outcome string) error {
	p, err := a.find(ctx, ledgerID)
	if err != nil {
		return err
	}

	return a.Recorder.Record(ctx, event.Event{
		Type: event.PaymentStatusNotified,
		Payload: event.PaymentStatusNotifiedPayload{
			PaymentID:      p.ID,
			IdempotencyKey: p.IdempotencyKey,
			CustomerID:     p.CustomerID,
			Amount:         p.Amount.StringFixed(2),
			Status:         outcome,
			OccurredAt:     time.Now().UTC(),
		},
	})
}

func (a *Activities) find(ctx context.Context, ledgerID string) (*payment.Payment, error) {
	p, err := a.Ledger.FindByID(ctx, ledgerID)
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	}
	return p, err
}
