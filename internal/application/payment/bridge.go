package payment

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/retry"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
	domainPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
)

var tracer = otel.Tracer("payment_workflow/application/payment")

// Orchestrator is the client side of the durable workflow engine.
type Orchestrator interface {
	Start(ctx context.Context, in workflow.Input) error
	QueryString(ctx context.Context, workflowID, query string) (string, error)
	Signal(ctx context.Context, workflowID, signal string, arg any) error
}

const DefaultGracePeriod = 5 * time.Second

// DefaultPollBackoff bounds the delay between ledger id queries.
var DefaultPollBackoff = retry.Scheduler{
	BaseDelay: 50 * time.Millisecond,
	MaxDelay:  time.Second,
}

// Bridge turns the asynchronous credit card workflow into a synchronous
// create call. It starts the workflow and polls its ledger id query until the
// record exists or the grace period runs out.
type Bridge struct {
	Orchestrator Orchestrator
	Ledger       domainPayment.Repository
	Logger       logging.Logger
	GracePeriod  time.Duration
	Backoff      retry.Scheduler
}

func (b *Bridge) Create(ctx context.Context, in workflow.Input) (*domainPayment.Payment, error) {
	ctx, span := tracer.Start(ctx, "bridge.create")
	defer span.End()

	workflowID := workflow.ID(in.PaymentID)
	span.SetAttributes(attribute.String("workflow.id", workflowID))

	existing, err := b.Ledger.FindByIdempotencyKey(ctx, in.PaymentID)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("bridge.existing", true))
		b.Logger.Info("payment already recorded, workflow not restarted", map[string]any{
			"workflow_id": workflowID,
			"ledger_id":   existing.ID,
			"status":      existing.Status,
		})
		return existing, nil
	case !errors.Is(err, domainPayment.ErrPaymentNotFound):
		return nil, err
	}

	// a concurrent create may have started the run; its ledger id is polled below
	if err := b.Orchestrator.Start(ctx, in); err != nil && !errors.Is(err, ErrWorkflowStarted) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		return nil, err
	}

	grace := b.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	backoff := b.Backoff
	if backoff.BaseDelay <= 0 {
		backoff = DefaultPollBackoff
	}

	waitCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	for attempt := 1; ; attempt++ {
		ledgerID, err := b.Orchestrator.QueryString(waitCtx, workflowID, workflow.QueryLedgerID)
		if err == nil && ledgerID != "" {
			span.SetAttributes(attribute.Int("bridge.attempts", attempt))
			return b.Ledger.FindByID(ctx, ledgerID)
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			b.Logger.Warn("ledger id query failed", map[string]any{
				"workflow_id": workflowID,
				"attempt":     attempt,
				"error":       err,
			})
		}

		timer := time.NewTimer(backoff.Delay(attempt))
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			span.SetStatus(codes.Error, "grace period elapsed")
			b.Logger.Warn("bridge grace period elapsed", map[string]any{
				"workflow_id": workflowID,
				"attempts":    attempt,
			})
			return nil, ErrBridgeTimeout
		case <-timer.C:
		}
	}
}
