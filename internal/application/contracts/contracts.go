package contracts

import (
	"context"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type EventRecorder interface {
	Record(context.Context, event.Event) error
}

// Preference is the gateway-side checkout created for a ledger record.
type Preference struct {
	ID          string
	CheckoutURL string
}

type Gateway interface {
	CreatePreference(ctx context.Context, p *payment.Payment) (Preference, error)
}

// Deduper reports whether key was already seen, marking it seen otherwise.
// Forget releases a key whose processing did not complete.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}
