package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
)

const publishTimeout = 5 * time.Second

// Publisher forwards an encoded event to an external channel.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

type message struct {
	Type    event.Type `json:"type"`
	Payload any        `json:"payload"`
}

// Handler receives payment events from the bus, forwards them to the
// configured publisher and counts terminal outcomes once they are delivered.
type Handler struct {
	Publisher Publisher
	Metrics   *metrics.Counters
	Logger    logging.Logger
}

func (h *Handler) Handle(evt event.Event) error {
	var key string

	switch p := evt.Payload.(type) {
	case event.PaymentStatusNotifiedPayload:
		key = p.IdempotencyKey
	case event.PaymentStatusReceivedPayload:
		key = p.PaymentID
	default:
		return fmt.Errorf("invalid payload for %s: %T", evt.Type, evt.Payload)
	}

	body, err := json.Marshal(message{Type: evt.Type, Payload: evt.Payload})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := h.Publisher.Publish(ctx, key, body); err != nil {
		h.Metrics.IncNotificationError()
		return err
	}
	h.Metrics.IncNotificationSent()

	if p, ok := evt.Payload.(event.PaymentStatusNotifiedPayload); ok {
		h.Metrics.IncOutcome(p.Status)
		h.Logger.Info("payment outcome notified", map[string]any{
			"payment_id": p.PaymentID,
			"status":     p.Status,
		})
	}
	return nil
}

// LogPublisher only logs. It is used when no broker is configured.
type LogPublisher struct {
	Logger logging.Logger
}

func (l *LogPublisher) Publish(_ context.Context, key string, payload []byte) error {
	l.Logger.Info("notification", map[string]any{"key": key, "payload": string(payload)})
	return nil
}
