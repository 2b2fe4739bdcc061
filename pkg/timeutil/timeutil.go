package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// BackoffParam shapes the delay between retries: the first retry waits
// InitialDuration, each later one Multiplier times longer, never more than
// MaxDuration.
type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(initialDuration time.Duration, multiplier float64, maxDuration time.Duration) BackoffParam {
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration { return b.initialDuration }
func (b BackoffParam) Multiplier() float64            { return b.multiplier }

// MaxDuration is the cap; zero leaves the delay uncapped.
func (b BackoffParam) MaxDuration() time.Duration { return b.maxDuration }

// MaxDuration returns the largest duration in ds, or zero for an empty slice.
func MaxDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	max := ds[0]
	for _, d := range ds[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a pseudo-random duration in [0, max).
// A non-positive max yields zero.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes initial * multiplier^(attempt-1), capped at
// the configured maximum, plus jitter.
// The first attempt (attempt=1) waits the initial duration.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), float64(attempt-1))
	if max := float64(param.MaxDuration()); max > 0 && delay > max {
		delay = max
	}
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
