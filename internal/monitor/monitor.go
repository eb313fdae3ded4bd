// Package monitor runs the fetch→diff→dispatch loop for each monitored
// property search and keeps exactly one notification message alive per
// tracked property.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

const (
	blockedBackoffBase    = 15 * time.Minute
	blockedBackoffCeiling = time.Hour
)

// Source fetches the current listings for a search URL.
type Source interface {
	Fetch(ctx context.Context, searchURL string) ([]listing.Listing, error)
}

// EventKind classifies what happened to a tracked property this cycle.
type EventKind string

const (
	EventNew      EventKind = "new"
	EventChanged  EventKind = "changed"
	EventVanished EventKind = "vanished"
)

// Notification is the content handed to the Notifier. An empty MessageID
// means create; otherwise the existing message is edited in place.
type Notification struct {
	MessageID string
	Property  *listing.TrackedProperty
	Event     EventKind
	Reasons   []listing.ChangeReason
}

// Notifier owns the per-property notification artifact.
type Notifier interface {
	// Publish creates or edits the notification and returns its message ID.
	Publish(channelID string, n Notification) (string, error)
	// Delete removes a notification message.
	Delete(channelID, messageID string) error
}

// Target is one monitored search.
type Target struct {
	Name          string
	SearchURL     string
	ChannelID     string
	RetentionDays int
	Schedule      *Schedule
	Source        Source
}

// Monitor drives the scrape loops. All targets share the semaphore gate
// so simultaneous outbound scrapes stay bounded.
type Monitor struct {
	repo     *listing.Repository
	notifier Notifier
	gate     *semaphore.Weighted
	log      *slog.Logger
	rng      *rand.Rand
	now      func() time.Time
}

// New creates a monitor over the shared repository and notifier.
func New(repo *listing.Repository, notifier Notifier, maxConcurrent int64) *Monitor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Monitor{
		repo:     repo,
		notifier: notifier,
		gate:     semaphore.NewWeighted(maxConcurrent),
		log:      logging.ForCog("monitor"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Run loops a target until ctx is cancelled: cycle, then sleep a computed
// interval. A failed cycle skips to the next tick; a blocked cycle backs
// off exponentially up to the ceiling.
func (m *Monitor) Run(ctx context.Context, t Target) error {
	log := m.log.With("target", t.Name)
	bo := newBackoff(blockedBackoffBase, blockedBackoffCeiling)

	for {
		var delay time.Duration
		err := m.Cycle(ctx, t)
		switch {
		case err == nil:
			bo.reset()
			delay = t.Schedule.NextDelay(m.now(), m.rng)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		case errors.Is(err, listing.ErrBlocked):
			delay = bo.next()
			log.Warn("scrape blocked, backing off", "delay", delay, "error", err)
		default:
			bo.reset()
			delay = t.Schedule.NextDelay(m.now(), m.rng)
			log.Error("cycle failed, waiting for next tick", "delay", delay, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Cycle runs one fetch→diff→dispatch pass for a target.
func (m *Monitor) Cycle(ctx context.Context, t Target) error {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.gate.Release(1)

	current, err := t.Source.Fetch(ctx, t.SearchURL)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", t.Name, err)
	}

	prev, err := m.repo.ByTarget(t.Name)
	if err != nil {
		return fmt.Errorf("loading tracked properties: %w", err)
	}

	diff := listing.Diff(prev, current)
	m.dispatch(t, diff)

	if err := m.Sweep(t); err != nil {
		m.log.Error("retention sweep failed", "target", t.Name, "error", err)
	}

	return nil
}

// dispatch applies the diff to storage and the notification channel.
// Notification delivery failures are logged and dropped; they never stop
// the cycle.
func (m *Monitor) dispatch(t Target, diff listing.DiffResult) {
	log := m.log.With("target", t.Name)

	for _, l := range diff.New {
		tp, err := m.repo.Insert(t.Name, t.ChannelID, l)
		if err != nil {
			log.Error("inserting new listing", "external_id", l.ExternalID, "error", err)
			continue
		}
		m.publish(log, t.ChannelID, Notification{Property: tp, Event: EventNew}, tp.ID)
	}

	for _, c := range diff.Changed {
		if err := m.repo.ApplyListing(c.Tracked.ID, c.Listing); err != nil {
			log.Error("applying change", "external_id", c.Tracked.ExternalID, "error", err)
			continue
		}
		tp, err := m.repo.GetByID(c.Tracked.ID)
		if err != nil {
			log.Error("reloading tracked property", "external_id", c.Tracked.ExternalID, "error", err)
			continue
		}
		m.publish(log, t.ChannelID, Notification{
			MessageID: tp.MessageID,
			Property:  tp,
			Event:     EventChanged,
			Reasons:   c.Reasons,
		}, tp.ID)
	}

	for _, s := range diff.Unchanged {
		if err := m.repo.ApplyListing(s.Tracked.ID, s.Listing); err != nil {
			log.Error("refreshing last_seen", "external_id", s.Tracked.ExternalID, "error", err)
		}
	}

	for _, tp := range diff.Vanished {
		transitioned, err := m.repo.MarkVanished(tp.ID, m.now())
		if err != nil {
			log.Error("marking vanished", "external_id", tp.ExternalID, "error", err)
			continue
		}
		if !transitioned {
			continue
		}
		m.publish(log, t.ChannelID, Notification{
			MessageID: tp.MessageID,
			Property:  tp,
			Event:     EventVanished,
		}, tp.ID)
	}
}

// publish delivers one notification and records the resulting message ID
// when one was created.
func (m *Monitor) publish(log *slog.Logger, channelID string, n Notification, id int64) {
	messageID, err := m.notifier.Publish(channelID, n)
	if err != nil {
		log.Error("notification delivery failed", "external_id", n.Property.ExternalID, "error", err)
		return
	}
	if messageID != n.MessageID {
		if err := m.repo.SetMessageID(id, messageID); err != nil {
			log.Error("recording message id", "external_id", n.Property.ExternalID, "error", err)
		}
	}
}

// Sweep deletes tracked properties past the retention window along with
// their notification messages.
func (m *Monitor) Sweep(t Target) error {
	cutoff := m.now().AddDate(0, 0, -t.RetentionDays)
	expired, err := m.repo.ExpiredBefore(t.Name, cutoff)
	if err != nil {
		return fmt.Errorf("finding expired properties: %w", err)
	}

	for _, tp := range expired {
		if tp.MessageID != "" {
			if err := m.notifier.Delete(tp.ChannelID, tp.MessageID); err != nil {
				m.log.Warn("deleting notification message", "target", t.Name,
					"external_id", tp.ExternalID, "error", err)
			}
		}
		if err := m.repo.Delete(tp.ID); err != nil {
			return fmt.Errorf("deleting tracked property %s: %w", tp.ExternalID, err)
		}
		m.log.Info("swept expired property", "target", t.Name, "external_id", tp.ExternalID)
	}

	return nil
}
