package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/imdb-mcp/pkg/timeutil"
	"golang.org/x/time/rate"
)

// RateLimiter
// Specialized component to pace requests to the content source
// Responsibilities:
// - Keep a token bucket per upstream host
// - Apply exponential backoff after the host signals overload (429)
// - Block callers until they may issue the next request, honoring ctx
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
	Backoff(host string)
	ResetBackoff(host string)
}

type ConcurrentRateLimiter struct {
	mu           sync.Mutex
	rngMu        sync.Mutex
	limit        rate.Limit
	burst        int
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	buckets      map[string]*rate.Limiter
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

// NewConcurrentRateLimiter creates a limiter allowing requestsPerSecond with
// the given burst per host. A non-positive requestsPerSecond disables pacing.
func NewConcurrentRateLimiter(
	requestsPerSecond float64,
	burst int,
	backoffParam timeutil.BackoffParam,
) *ConcurrentRateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &ConcurrentRateLimiter{
		limit:        limit,
		burst:        burst,
		backoffParam: backoffParam,
		buckets:      make(map[string]*rate.Limiter),
		hostTimings:  make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Wait blocks until the host's backoff window has passed and a token is
// available. It returns ctx.Err() if ctx ends first.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	if delay := r.ResolveBackoff(host); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.bucket(host).Wait(ctx)
}

func (r *ConcurrentRateLimiter) bucket(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[host]
	if !ok {
		b = rate.NewLimiter(r.limit, r.burst)
		r.buckets[host] = b
	}
	return b
}

// Backoff triggers exponential backoff for the given host.
// It increments the backoff counter and computes the delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	jitter := r.jitter
	current := r.hostTimings[host]
	r.mu.Unlock()

	current.backoffCount++
	r.rngMu.Lock()
	current.backoffDelay = timeutil.ExponentialBackoffDelay(current.backoffCount, jitter, r.rng, r.backoffParam)
	r.rngMu.Unlock()
	current.backoffAt = time.Now()

	r.mu.Lock()
	r.hostTimings[host] = current
	r.mu.Unlock()
}

// ResetBackoff resets the backoff counter for the given host.
// Called after a successful request to clear backoff state.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.hostTimings, host)
}

// ResolveBackoff returns how long a request to host must still wait because
// of an active backoff. Zero when the host is not backing off.
func (r *ConcurrentRateLimiter) ResolveBackoff(host string) time.Duration {
	r.mu.Lock()
	current, exists := r.hostTimings[host]
	r.mu.Unlock()

	if !exists || current.backoffDelay <= 0 {
		return 0
	}

	elapsed := time.Since(current.backoffAt)
	if elapsed < current.backoffDelay {
		return current.backoffDelay - elapsed
	}
	return 0
}

func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.Lock()
	defer r.mu.Unlock()

	// return a shallow copy to avoid exposing internal map for mutation
	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}

var _ RateLimiter = (*ConcurrentRateLimiter)(nil)
