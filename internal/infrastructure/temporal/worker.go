package temporal

import (
	"context"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/activity"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
)

func NewWorker(c client.Client, taskQueue string, acts *activity.Activities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(workflow.PaymentWorkflow)
	w.RegisterActivity(acts)
	return w
}

// RunWorker polls the task queue until ctx is done.
func RunWorker(ctx context.Context, w worker.Worker) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}
