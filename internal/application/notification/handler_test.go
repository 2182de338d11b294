package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/notification"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
)

type fakePublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestHandler_PublishesAndCountsOutcome(t *testing.T) {
	pub := &fakePublisher{}
	counters := &metrics.Counters{}
	h := &notification.Handler{Publisher: pub, Metrics: counters, Logger: logging.NewNop()}

	err := h.Handle(event.Event{
		Type:    event.PaymentStatusNotified,
		Payload: event.PaymentStatusNotifiedPayload{PaymentID: "id-1", IdempotencyKey: "p1", Status: "CANCELLED"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"p1"}, pub.keys)

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "PAYMENT_STATUS_NOTIFIED", msg.Type)
	assert.Equal(t, "CANCELLED", msg.Payload["status"])

	snap := counters.Snapshot()
	assert.Equal(t, uint64(1), snap["payments_cancelled"])
	assert.Equal(t, uint64(1), snap["notifications_sent"])
}

func TestHandler_PublisherFailureIsReturned(t *testing.T) {
	counters := &metrics.Counters{}
	h := &notification.Handler{Publisher: &fakePublisher{err: errors.New("broker down")}, Metrics: counters, Logger: logging.NewNop()}

	err := h.Handle(event.Event{
		Type:    event.PaymentStatusNotified,
		Payload: event.PaymentStatusNotifiedPayload{PaymentID: "id-1", Status: "PAID"},
	})
	assert.Error(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(0), snap["payments_paid"])
	assert.Equal(t, uint64(1), snap["notification_errors"])
}

func TestHandler_RejectsUnknownPayload(t *testing.T) {
	h := &notification.Handler{Publisher: &fakePublisher{}, Metrics: &metrics.Counters{}, Logger: logging.NewNop()}

	err := h.Handle(event.Event{Type: event.PaymentStatusNotified, Payload: map[string]any{}})
	assert.Error(t, err)
}
