package outbox

import (
	"context"
	"slices"
	"sync"
)

type MemoryRepository struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, evt OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	evt.Payload = slices.Clone(evt.Payload)
	r.events = append(r.events, evt)
	return nil
}

func (r *MemoryRepository) FindUnpublished(_ context.Context, limit int) ([]OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []OutboxEvent
	for _, evt := range r.events {
		if len(out) == limit {
			break
		}
		if !evt.Published {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (r *MemoryRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Published = true
		}
	}
	return nil
}
