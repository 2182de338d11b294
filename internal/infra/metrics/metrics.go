package metrics

import "sync/atomic"

type Counters struct {
	PaymentsCreated    uint64
	PaymentsPaid       uint64
	PaymentsFailed     uint64
	PaymentsCancelled  uint64
	PaymentsExpired    uint64
	NotificationsSent  uint64
	NotificationErrors uint64
}

func (c *Counters) IncCreated() {
	atomic.AddUint64(&c.PaymentsCreated, 1)
}

// IncOutcome counts a terminal workflow outcome.
func (c *Counters) IncOutcome(outcome string) {
	switch outcome {
	case "PAID":
		atomic.AddUint64(&c.PaymentsPaid, 1)
	case "FAIL":
		atomic.AddUint64(&c.PaymentsFailed, 1)
	case "CANCELLED":
		atomic.AddUint64(&c.PaymentsCancelled, 1)
	case "EXPIRED":
		atomic.AddUint64(&c.PaymentsExpired, 1)
	}
}

func (c *Counters) IncNotificationSent() {
	atomic.AddUint64(&c.NotificationsSent, 1)
}

func (c *Counters) IncNotificationError() {
	atomic.AddUint64(&c.NotificationErrors, 1)
}

func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"payments_created":    atomic.LoadUint64(&c.PaymentsCreated),
		"payments_paid":       atomic.LoadUint64(&c.PaymentsPaid),
		"payments_failed":     atomic.LoadUint64(&c.PaymentsFailed),
		"payments_cancelled":  atomic.LoadUint64(&c.PaymentsCancelled),
		"payments_expired":    atomic.LoadUint64(&c.PaymentsExpired),
		"notifications_sent":  atomic.LoadUint64(&c.NotificationsSent),
		"notification_errors": atomic.LoadUint64(&c.NotificationErrors),
	}
}
