package payment

import "context"

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	CustomerID string
	Method     Method
}

// Repository is the payment ledger shared by the API, the activities and the
// webhook path. Implementations must make Create idempotent on IdempotencyKey
// and must never move a final status to another value.
type Repository interface {
	// Create stores p, or returns the already stored payment with the same
	// IdempotencyKey. created reports which one happened.
	Create(ctx context.Context, p *Payment) (stored *Payment, created bool, err error)
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	// FindAll returns matches newest first.
	FindAll(ctx context.Context, f Filter) ([]*Payment, error)
	Update(ctx context.Context, id string, u Update) (*Payment, error)
}
