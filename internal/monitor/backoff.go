package monitor

import "time"

// backoff doubles the delay on every consecutive blocked cycle, capped
// at a fixed ceiling, and resets after a clean cycle.
type backoff struct {
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

func newBackoff(base, ceiling time.Duration) *backoff {
	return &backoff{base: base, ceiling: ceiling}
}

// next returns the delay to use for the next attempt.
func (b *backoff) next() time.Duration {
	if b.current == 0 {
		b.current = b.base
	} else {
		b.current *= 2
	}
	if b.current > b.ceiling {
		b.current = b.ceiling
	}
	return b.current
}

// reset clears the progression after a successful cycle.
func (b *backoff) reset() {
	b.current = 0
}
