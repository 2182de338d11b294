package payment_test

import (
	"context"
	"sync"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
	domainPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type sentSignal struct {
	WorkflowID string
	Name       string
	Arg        any
}

type fakeOrchestrator struct {
	mu       sync.Mutex
	started  []workflow.Input
	signals  []sentSignal
	queries  int
	startFn  func(workflow.Input) error
	queryFn  func(workflowID, query string) (string, error)
	signalFn func(workflowID, name string) error
}

func (f *fakeOrchestrator) Start(_ context.Context, in workflow.Input) error {
	f.mu.Lock()
	f.started = append(f.started, in)
	f.mu.Unlock()

	if f.startFn != nil {
		return f.startFn(in)
	}
	return nil
}

func (f *fakeOrchestrator) QueryString(_ context.Context, workflowID, query string) (string, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()

	if f.queryFn != nil {
		return f.queryFn(workflowID, query)
	}
	return "", nil
}

func (f *fakeOrchestrator) Signal(_ context.Context, workflowID, name string, arg any) error {
	f.mu.Lock()
	f.signals = append(f.signals, sentSignal{WorkflowID: workflowID, Name: name, Arg: arg})
	f.mu.Unlock()

	if f.signalFn != nil {
		return f.signalFn(workflowID, name)
	}
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return true, nil
	}
	f.seen[key] = true
	return false, nil
}

func (f *fakeDeduper) Forget(_ context.Context, key string) error {
	delete(f.seen, key)
	return nil
}

// flakyLedger fails the first failUpdates calls to Update.
type flakyLedger struct {
	domainPayment.Repository
	failUpdates int
	err         error
}

func (f *flakyLedger) Update(ctx context.Context, id string, u domainPayment.Update) (*domainPayment.Payment, error) {
	if f.failUpdates > 0 {
		f.failUpdates--
		return nil, f.err
	}
	return f.Repository.Update(ctx, id, u)
}
