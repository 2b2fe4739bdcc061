package limiter

import "time"

// timing-related data used to track upstream backoff per host
type hostTiming struct {
	backoffAt    time.Time
	backoffDelay time.Duration
	backoffCount int
}

func (h *hostTiming) BackOffDelay() time.Duration {
	return h.backoffDelay
}

func (h *hostTiming) BackoffAt() time.Time {
	return h.backoffAt
}

func (h *hostTiming) BackoffCount() int {
	return h.backoffCount
}
