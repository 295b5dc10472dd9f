// Package retry runs store operations again after transient failures, backing
// off exponentially with jitter so that concurrent workers do not retry in lockstep.
package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"retail-catalog/internal/apperr"
)

// DefaultJitter adds up to 50% on top of each backoff step.
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
	Jitter      float64
}

// Backoff returns the wait before retry number attempt (zero-based).
// The result lies in [d, d*(1+Jitter)] where d = min(Base*2^attempt, Max).
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d > p.Max {
			d = p.Max
			break
		}
	}
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	randMutex.Lock()
	j := globalRand.Float64() * p.Jitter * float64(d)
	randMutex.Unlock()
	return d + time.Duration(j)
}

// Do calls fn until it succeeds, returns a non-transient error, the attempts
// are exhausted, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil || !apperr.IsTransient(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
