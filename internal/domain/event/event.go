package event

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	PaymentStatusNotified Type = "PAYMENT_STATUS_NOTIFIED"
	PaymentStatusReceived Type = "PAYMENT_STATUS_RECEIVED"
)

type Event struct {
	Type    Type
	Payload any
}

// Decode rebuilds an Event from its stored type and JSON payload.
func Decode(typ Type, data []byte) (Event, error) {
	var payload any

	switch typ {
	case PaymentStatusNotified:
		var p PaymentStatusNotifiedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, err
		}
		payload = p
	case PaymentStatusReceived:
		var p PaymentStatusReceivedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, err
		}
		payload = p
	default:
		return Event{}, fmt.Errorf("unknown event type %q", typ)
	}

	return Event{Type: typ, Payload: payload}, nil
}
