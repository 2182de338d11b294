package retry

import (
	"time"

	"go.temporal.io/sdk/temporal"
)

// Scheduler describes a capped exponential backoff. Attempts are 1-based.
type Scheduler struct {
	MaxRetry  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Activity is the policy shared by every ledger and gateway activity.
var Activity = Scheduler{
	MaxRetry:  3,
	BaseDelay: time.Second,
	MaxDelay:  30 * time.Second,
}

func (r Scheduler) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 31 {
		return r.MaxDelay
	}
	return min(r.BaseDelay*time.Duration(1<<(attempt-1)), r.MaxDelay)
}

// Exhausted reports whether attempt has used up the budget.
func (r Scheduler) Exhausted(attempt int) bool {
	return r.MaxRetry > 0 && attempt >= r.MaxRetry
}

// Policy renders the scheduler as a Temporal retry policy. Errors whose
// application type is listed in nonRetryable fail on the first attempt.
func (r Scheduler) Policy(nonRetryable ...string) *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:        r.BaseDelay,
		BackoffCoefficient:     2.0,
		MaximumInterval:        r.MaxDelay,
		MaximumAttempts:        int32(r.MaxRetry),
		NonRetryableErrorTypes: nonRetryable,
	}
}
