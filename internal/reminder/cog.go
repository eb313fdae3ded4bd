package reminder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

const colorReminder = 0x9b59b6 // purple

// messenger is the slice of discordgo.Session the cog needs.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Cog posts recurring reminders on cron schedules. Each occurrence is
// claimed in the reminder log before posting, so overlapping runs and
// restarts never repeat a post.
type Cog struct {
	repo      *Repository
	session   messenger
	reminders []config.ReminderConfig
	cron      *cron.Cron
	log       *slog.Logger
	now       func() time.Time
}

func NewCog(session messenger, repo *Repository, reminders []config.ReminderConfig) *Cog {
	return &Cog{
		repo:      repo,
		session:   session,
		reminders: reminders,
		cron:      cron.New(),
		log:       logging.ForCog("reminders"),
		now:       time.Now,
	}
}

// Start validates every schedule and begins firing. A bad cron spec
// fails startup rather than silently never firing.
func (c *Cog) Start() error {
	for _, r := range c.reminders {
		r := r
		if _, err := c.cron.AddFunc(r.Schedule, func() { c.Fire(r) }); err != nil {
			return fmt.Errorf("reminder %q: schedule %q: %w", r.Name, r.Schedule, err)
		}
	}
	c.cron.Start()
	c.log.Info("reminders started", "count", len(c.reminders))
	return nil
}

// Stop waits for any in-flight posting to finish.
func (c *Cog) Stop() {
	<-c.cron.Stop().Done()
	c.log.Info("reminders stopped")
}

// Fire posts one reminder if its current occurrence has not been
// posted yet. Occurrences are keyed to the minute.
func (c *Cog) Fire(r config.ReminderConfig) {
	occurrence := c.now().UTC().Truncate(time.Minute)

	claimed, err := c.repo.Claim(r.Name, occurrence)
	if err != nil {
		c.log.Error("claiming occurrence", "reminder", r.Name, "error", err)
		return
	}
	if !claimed {
		c.log.Debug("occurrence already posted",
			"reminder", r.Name, "occurrence", occurrence)
		return
	}

	_, err = c.session.ChannelMessageSendComplex(r.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       r.Title,
			Description: r.Message,
			Color:       colorReminder,
		}},
	})
	if err != nil {
		c.log.Error("posting reminder", "reminder", r.Name, "error", err)
		return
	}
	c.log.Info("reminder posted", "reminder", r.Name, "occurrence", occurrence)
}
