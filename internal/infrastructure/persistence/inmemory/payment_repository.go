package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type PaymentRepository struct {
	mu              sync.RWMutex
	payments        map[string]*payment.Payment
	idempotencyKeys map[string]string
	now             func() time.Time
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		mu:              sync.RWMutex{},
		payments:        make(map[string]*payment.Payment),
		idempotencyKeys: make(map[string]string),
		now:             time.Now,
	}
}

func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) (*payment.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.idempotencyKeys[p.IdempotencyKey]; exists {
		return clone(r.payments[id]), false, nil
	}

	stored := clone(p)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.payments[stored.ID] = stored
	r.idempotencyKeys[stored.IdempotencyKey] = stored.ID

	return clone(stored), true, nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return clone(p), nil
}

func (r *PaymentRepository) FindByIdempotencyKey(_ context.Context, key string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paymentID, ok := r.idempotencyKeys[key]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}

	return clone(p), nil
}

func (r *PaymentRepository) FindAll(_ context.Context, f payment.Filter) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*payment.Payment
	for _, p := range r.payments {
		if f.CustomerID != "" && p.CustomerID != f.CustomerID {
			continue
		}
		if f.Method != "" && p.Method != f.Method {
			continue
		}
		out = append(out, clone(p))
	}

	slices.SortFunc(out, func(a, b *payment.Payment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *PaymentRepository) Update(_ context.Context, id string, u payment.Update) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}

	next := clone(p)
	if err := next.Apply(u); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now().UTC()
	r.payments[id] = next

	return clone(next), nil
}

func clone(p *payment.Payment) *payment.Payment {
	c := *p
	return &c
}
