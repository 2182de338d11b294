package workflow

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/activity"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/retry"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

var ErrUnsupportedMethod = errors.New("payment workflow only handles CREDIT_CARD")

// PaymentWorkflow drives one credit card payment from ledger record to a
// terminal outcome. It creates the record and the gateway preference, then
// waits for a status signal, a cancel, or the confirmation window to elapse.
func PaymentWorkflow(ctx workflow.Context, input Input) (Outcome, error) {
	logger := workflow.GetLogger(ctx)
	st := newState(input.PaymentID)

	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (string, error) {
		return string(st.status), nil
	}); err != nil {
		return "", err
	}
	if err := workflow.SetQueryHandler(ctx, QueryLedgerID, func() (string, error) {
		return st.ledgerID, nil
	}); err != nil {
		return "", err
	}

	statusCh := workflow.GetSignalChannel(ctx, SignalStatusUpdate)
	cancelCh := workflow.GetSignalChannel(ctx, SignalCancel)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			sel := workflow.NewSelector(gctx)
			sel.AddReceive(statusCh, func(c workflow.ReceiveChannel, _ bool) {
				var u StatusUpdate
				c.Receive(gctx, &u)
				st.applyStatus(logger, u)
			})
			sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, _ bool) {
				c.Receive(gctx, nil)
				st.cancel()
			})
			sel.Select(gctx)
		}
	})

	if input.PaymentMethod != payment.MethodCreditCard {
		return "", temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%s: got %q", ErrUnsupportedMethod, input.PaymentMethod),
			activity.ErrTypeValidation, nil)
	}

	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	var a *activity.Activities

	err := workflow.ExecuteActivity(ctx, a.CreateRecord, activity.RecordInput{
		IdempotencyKey: input.PaymentID,
		CustomerID:     input.CustomerID,
		Description:    input.Description,
		Amount:         input.Amount,
		Method:         input.PaymentMethod,
	}).Get(ctx, &st.ledgerID)
	if err != nil {
		logger.Error("ledger record creation failed", "paymentId", input.PaymentID, "error", err)
		return "", err
	}
	logger.Info("ledger record created", "paymentId", input.PaymentID, "ledgerId", st.ledgerID)

	if err := workflow.ExecuteActivity(ctx, a.CreatePreference, st.ledgerID).Get(ctx, nil); err != nil {
		logger.Error("gateway preference failed", "ledgerId", st.ledgerID, "error", err)
		compensate(ctx, st.ledgerID)
		notify(ctx, st.ledgerID, OutcomeFailed)
		return "", err
	}

	window := input.ConfirmationWindow
	if window <= 0 {
		window = DefaultConfirmationWindow
	}

	ok, err := workflow.AwaitWithTimeout(ctx, window, st.ready)
	if err != nil {
		logger.Error("confirmation wait interrupted", "ledgerId", st.ledgerID, "error", err)
		compensate(ctx, st.ledgerID)
		notify(ctx, st.ledgerID, OutcomeFailed)
		return "", err
	}

	outcome, resolved := st.resolve(input.Precedence)
	switch {
	case !ok || !resolved:
		outcome = OutcomeExpired
		compensate(ctx, st.ledgerID)
	case outcome == OutcomeCancelled:
		compensate(ctx, st.ledgerID)
	}

	logger.Info("payment workflow finished", "ledgerId", st.ledgerID, "outcome", outcome)
	notify(ctx, st.ledgerID, outcome)
	return outcome, nil
}

func activityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy:         retry.Activity.Policy(activity.ErrTypeValidation, activity.ErrTypeNotFound),
	}
}

// compensate marks the ledger record FAIL. It runs on a disconnected context
// so a cancelled run still writes; a failing write is only logged.
func compensate(ctx workflow.Context, ledgerID string) {
	dctx, _ := workflow.NewDisconnectedContext(ctx)
	dctx = workflow.WithActivityOptions(dctx, activityOptions())

	var a *activity.Activities
	if err := workflow.ExecuteActivity(dctx, a.UpdateStatus, ledgerID, payment.StatusFailed).Get(dctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("compensating FAIL write failed", "ledgerId", ledgerID, "error", err)
	}
}

func notify(ctx workflow.Context, ledgerID string, outcome Outcome) {
	dctx, _ := workflow.NewDisconnectedContext(ctx)
	opts := activityOptions()
	opts.RetryPolicy = &temporal.RetryPolicy{MaximumAttempts: 1}
	dctx = workflow.WithActivityOptions(dctx, opts)

	var a *activity.Activities
	if err := workflow.ExecuteActivity(dctx, a.Notify, ledgerID, string(outcome)).Get(dctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("notification failed", "ledgerId", ledgerID, "outcome", outcome, "error", err)
	}
}
