package monitor

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
)

// window is a time-of-day range in minutes since midnight. end < start
// means the window wraps midnight.
type window struct {
	start, end int
}

func (w window) contains(minute int) bool {
	if w.start <= w.end {
		return minute >= w.start && minute < w.end
	}
	return minute >= w.start || minute < w.end
}

// Schedule computes the sleep between scrape cycles: a short randomized
// interval inside the configured active windows, a longer one outside.
type Schedule struct {
	windows   []window
	activeMin time.Duration
	activeMax time.Duration
	idleMin   time.Duration
	idleMax   time.Duration
}

// NewSchedule builds a Schedule from a target's config. With no windows
// configured the whole day counts as active.
func NewSchedule(t config.TargetConfig) (*Schedule, error) {
	s := &Schedule{
		activeMin: time.Duration(t.ActiveIntervalMinSecs) * time.Second,
		activeMax: time.Duration(t.ActiveIntervalMaxSecs) * time.Second,
		idleMin:   time.Duration(t.IdleIntervalMinSecs) * time.Second,
		idleMax:   time.Duration(t.IdleIntervalMaxSecs) * time.Second,
	}
	for _, spec := range t.ActiveWindows {
		start, end, err := config.ParseWindow(spec)
		if err != nil {
			return nil, fmt.Errorf("parsing active window: %w", err)
		}
		s.windows = append(s.windows, window{start: start, end: end})
	}
	return s, nil
}

// Active reports whether at falls inside any active window.
func (s *Schedule) Active(at time.Time) bool {
	if len(s.windows) == 0 {
		return true
	}
	minute := at.Hour()*60 + at.Minute()
	for _, w := range s.windows {
		if w.contains(minute) {
			return true
		}
	}
	return false
}

// NextDelay returns a uniformly random delay within the bounds for the
// window at is in.
func (s *Schedule) NextDelay(at time.Time, rng *rand.Rand) time.Duration {
	min, max := s.idleMin, s.idleMax
	if s.Active(at) {
		min, max = s.activeMin, s.activeMax
	}
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}
