package outbox

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
)

type Publisher interface {
	Publish(event.Event) error
}

type Dispatcher struct {
	Repo         Repository
	EventBus     Publisher
	Logger       logging.Logger
	PollInterval time.Duration
	BatchSize    int
}

func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce publishes one batch. Events that fail to decode or publish stay
// unpublished and are retried on the next tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.Logger.Error("outbox fetch failed", map[string]any{"error": err})
		return
	}

	for _, evt := range events {
		domainEvent, err := event.Decode(evt.Type, evt.Payload)
		if err != nil {
			d.Logger.Error("outbox decode failed", map[string]any{"event_id": evt.ID, "error": err})
			continue
		}

		if err := d.EventBus.Publish(domainEvent); err != nil {
			d.Logger.Warn("outbox publish failed", map[string]any{"event_id": evt.ID, "event_type": evt.Type, "error": err})
			continue
		}

		if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
			d.Logger.Error("outbox mark published failed", map[string]any{"event_id": evt.ID, "error": err})
		}
	}
}
