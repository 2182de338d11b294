package temporal

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
)

type Options struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// Client adapts the Temporal SDK client to the payment orchestrator port.
type Client struct {
	sdk       client.Client
	taskQueue string
}

func Dial(opts Options, logger log.Logger) (*Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  opts.HostPort,
		Namespace: opts.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", opts.HostPort, err)
	}
	return NewClient(c, opts.TaskQueue), nil
}

func NewClient(c client.Client, taskQueue string) *Client {
	return &Client{sdk: c, taskQueue: taskQueue}
}

func (c *Client) SDK() client.Client { return c.sdk }

func (c *Client) Close() { c.sdk.Close() }

// Start launches the payment workflow. A payment id runs at most once: a
// closed run with the same id is never restarted.
func (c *Client) Start(ctx context.Context, in workflow.Input) error {
	_, err := c.sdk.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       workflow.ID(in.PaymentID),
		TaskQueue:                c.taskQueue,
		WorkflowExecutionTimeout: workflow.ExecutionTimeout,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,

		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflow.PaymentWorkflow, in)
	return mapError(err)
}

func (c *Client) QueryString(ctx context.Context, workflowID, query string) (string, error) {
	val, err := c.sdk.QueryWorkflow(ctx, workflowID, "", query)
	if err != nil {
		return "", mapError(err)
	}

	var out string
	if err := val.Get(&out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) Signal(ctx context.Context, workflowID, signal string, arg any) error {
	return mapError(c.sdk.SignalWorkflow(ctx, workflowID, "", signal, arg))
}

func mapError(err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", appPayment.ErrWorkflowNotFound, notFound.Message)
	}
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return fmt.Errorf("%w: %s", appPayment.ErrWorkflowStarted, started.Message)
	}
	return err
}
