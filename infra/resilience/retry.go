package resilience

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// jitterBackoff produces delays of baseDelay * 2^(n-1) plus a uniformly
// random jitter in [0, maxJitter) for the n-th retry. It plugs into the
// backoff retry machinery, which handles attempt counting and context
// cancellation.
type jitterBackoff struct {
	baseDelay time.Duration
	maxJitter time.Duration
	attempt   int
}

func newJitterBackoff(baseDelay, maxJitter time.Duration) *jitterBackoff {
	return &jitterBackoff{baseDelay: baseDelay, maxJitter: maxJitter}
}

func (b *jitterBackoff) NextBackOff() time.Duration {
	delay := b.baseDelay << b.attempt
	b.attempt++
	if b.maxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(b.maxJitter)))
	}
	return delay
}

func (b *jitterBackoff) Reset() {
	b.attempt = 0
}

var _ backoff.BackOff = (*jitterBackoff)(nil)
