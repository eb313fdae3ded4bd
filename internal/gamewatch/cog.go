package gamewatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

const (
	colorUp   = 0x2ecc71 // green
	colorDown = 0xe74c3c // red
)

// messenger is the slice of discordgo.Session the watcher needs.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Watcher polls game servers over TCP and keeps one status embed per
// server edited in place. Transitions between up and down are
// announced in the channel.
type Watcher struct {
	repo      *Repository
	session   messenger
	channelID string
	servers   []config.ServerConfig
	interval  time.Duration
	timeout   time.Duration
	threshold int
	log       *slog.Logger

	probe func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error)
	now   func() time.Time
}

// NewWatcher creates the game-server health cog from its config
// section.
func NewWatcher(session messenger, repo *Repository, cfg config.GamewatchConfig) *Watcher {
	return &Watcher{
		repo:      repo,
		session:   session,
		channelID: cfg.ChannelID,
		servers:   cfg.Servers,
		interval:  time.Duration(cfg.IntervalSecs) * time.Second,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		threshold: cfg.FailureThreshold,
		log:       logging.ForCog("gamewatch"),
		probe:     Probe,
		now:       time.Now,
	}
}

// Run polls every server once immediately and then on each interval
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.log.Info("gamewatch started",
		"servers", len(w.servers), "interval", w.interval)

	for {
		w.CheckAll(ctx)

		select {
		case <-ctx.Done():
			w.log.Info("gamewatch stopped")
			return
		case <-time.After(w.interval):
		}
	}
}

// CheckAll probes every configured server once.
func (w *Watcher) CheckAll(ctx context.Context) {
	for _, server := range w.servers {
		if ctx.Err() != nil {
			return
		}
		if err := w.Check(ctx, server); err != nil {
			w.log.Error("checking server", "server", server.Name, "error", err)
		}
	}
}

// Check probes one server, persists the outcome, and updates its
// status embed. A server is only declared down after threshold
// consecutive failures.
func (w *Watcher) Check(ctx context.Context, server config.ServerConfig) error {
	latency, probeErr := w.probe(ctx, server.Address, w.timeout)

	prev, err := w.repo.Get(server.Name)
	if err != nil {
		return err
	}

	next := &Status{
		Name:      server.Name,
		ChannelID: w.channelID,
	}
	if prev != nil {
		next.MessageID = prev.MessageID
	}
	at := w.now()
	next.LastChecked = &at

	var wentUp, wentDown bool
	if probeErr == nil {
		ms := latency.Milliseconds()
		next.Up = true
		next.LatencyMS = &ms
		wentUp = prev != nil && !prev.Up
	} else {
		if prev != nil {
			next.Failures = prev.Failures + 1
			next.Up = prev.Up
		} else {
			next.Failures = 1
		}
		if next.Up && next.Failures >= w.threshold {
			next.Up = false
			wentDown = true
		}
		w.log.Warn("probe failed", "server", server.Name,
			"failures", next.Failures, "error", probeErr)
	}

	if err := w.repo.Record(next); err != nil {
		return err
	}

	if err := w.updateEmbed(server, next); err != nil {
		w.log.Error("updating status embed", "server", server.Name, "error", err)
	}

	switch {
	case wentDown:
		w.announce(fmt.Sprintf("🔴 **%s** is down (%s unreachable).", server.Name, server.Address))
	case wentUp:
		w.announce(fmt.Sprintf("🟢 **%s** is back up.", server.Name))
	}
	return nil
}

func (w *Watcher) updateEmbed(server config.ServerConfig, s *Status) error {
	embed := buildEmbed(server, s)

	if s.MessageID == "" {
		msg, err := w.session.ChannelMessageSendComplex(w.channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		})
		if err != nil {
			return fmt.Errorf("posting status embed: %w", err)
		}
		return w.repo.SetMessageID(s.Name, msg.ID)
	}

	_, err := w.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: w.channelID,
		ID:      s.MessageID,
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("editing status embed: %w", err)
	}
	return nil
}

func (w *Watcher) announce(content string) {
	if _, err := w.session.ChannelMessageSend(w.channelID, content); err != nil {
		w.log.Error("announcing transition", "error", err)
	}
}

func buildEmbed(server config.ServerConfig, s *Status) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: server.Name,
		Color: colorDown,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Address", Value: server.Address, Inline: true},
			{Name: "Status", Value: "🔴 Down", Inline: true},
		},
	}

	if s.Up {
		embed.Color = colorUp
		embed.Fields[1].Value = "🟢 Up"
		if s.LatencyMS != nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Latency", Value: fmt.Sprintf("%d ms", *s.LatencyMS), Inline: true,
			})
		}
	}

	if s.LastChecked != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Last checked", Value: fmt.Sprintf("<t:%d:R>", s.LastChecked.Unix()), Inline: true,
		})
	}
	return embed
}
