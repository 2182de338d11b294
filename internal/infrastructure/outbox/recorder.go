package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
)

type Recorder struct {
	Repo Repository
}

func (r *Recorder) Record(ctx context.Context, evt event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.Type, err)
	}

	return r.Repo.Save(ctx, OutboxEvent{
		ID:        uuid.NewString(),
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
}
