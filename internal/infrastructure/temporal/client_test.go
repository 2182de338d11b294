package temporal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
)

func TestClient_StartUsesPaymentWorkflowID(t *testing.T) {
	sdk := &mocks.Client{}
	sdk.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "payment-p1" && o.TaskQueue == "payments" && o.WorkflowExecutionTimeout == workflow.ExecutionTimeout &&
				o.WorkflowIDReusePolicy == enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
		}),
		mock.Anything, mock.Anything,
	).Return(&mocks.WorkflowRun{}, nil).Once()

	c := NewClient(sdk, "payments")
	assert.NoError(t, c.Start(context.Background(), workflow.Input{PaymentID: "p1"}))
	sdk.AssertExpectations(t)
}

func TestClient_StartMapsAlreadyStarted(t *testing.T) {
	sdk := &mocks.Client{}
	sdk.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("workflow execution already finished", "", "run-1")).Once()

	c := NewClient(sdk, "payments")
	err := c.Start(context.Background(), workflow.Input{PaymentID: "p1"})
	assert.ErrorIs(t, err, appPayment.ErrWorkflowStarted)
}

func TestClient_SignalMapsNotFound(t *testing.T) {
	sdk := &mocks.Client{}
	sdk.On("SignalWorkflow", mock.Anything, "payment-p1", "", workflow.SignalCancel, nil).
		Return(serviceerror.NewNotFound("workflow execution already completed")).Once()

	c := NewClient(sdk, "payments")
	err := c.Signal(context.Background(), "payment-p1", workflow.SignalCancel, nil)
	assert.ErrorIs(t, err, appPayment.ErrWorkflowNotFound)
}

func TestClient_SignalPassesOtherErrors(t *testing.T) {
	boom := errors.New("unavailable")
	sdk := &mocks.Client{}
	sdk.On("SignalWorkflow", mock.Anything, "payment-p1", "", workflow.SignalStatusUpdate, mock.Anything).
		Return(boom).Once()

	c := NewClient(sdk, "payments")
	err := c.Signal(context.Background(), "payment-p1", workflow.SignalStatusUpdate, workflow.StatusUpdate{PaymentID: "p1", Status: "PAID"})
	assert.ErrorIs(t, err, boom)
}
