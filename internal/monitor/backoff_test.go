package monitor

import (
	"testing"
	"time"
)

func TestBackoffProgression(t *testing.T) {
	b := newBackoff(15*time.Minute, time.Hour)

	want := []time.Duration{
		15 * time.Minute,
		30 * time.Minute,
		time.Hour,
		time.Hour, // capped
	}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("next() #%d = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := newBackoff(15*time.Minute, time.Hour)

	b.next()
	b.next()
	b.reset()

	if got := b.next(); got != 15*time.Minute {
		t.Errorf("next() after reset = %v, want base", got)
	}
}
