package activity

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
)

// timeLayout is how hosts type the start time in /activity create.
const timeLayout = "2006-01-02 15:04"

// Cog wires the activity commands and RSVP buttons into a session.
type Cog struct {
	repo      *Repository
	session   *discordgo.Session
	guildID   string
	channelID string
	log       *slog.Logger
	now       func() time.Time
}

// NewCog creates the activities cog. Activity embeds are posted to
// channelID.
func NewCog(session *discordgo.Session, repo *Repository, guildID, channelID string) *Cog {
	return &Cog{
		repo:      repo,
		session:   session,
		guildID:   guildID,
		channelID: channelID,
		log:       logging.ForCog("activities"),
		now:       time.Now,
	}
}

// Register creates the /activity command and installs the interaction
// handler.
func (c *Cog) Register() error {
	cmd := &discordgo.ApplicationCommand{
		Name:        "activity",
		Description: "Schedule social activities with RSVPs",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create an activity",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "What are we doing?", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "when", Description: "Start time, e.g. 2026-09-04 19:00", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Details"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "where", Description: "Location"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List upcoming activities",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cancel",
				Description: "Cancel an activity you host",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Activity ID", Required: true},
				},
			},
		},
	}

	if _, err := c.session.ApplicationCommandCreate(c.session.State.User.ID, c.guildID, cmd); err != nil {
		return fmt.Errorf("registering /activity command: %w", err)
	}

	c.session.AddHandler(c.handleInteraction)
	return nil
}

func (c *Cog) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != "activity" || len(data.Options) == 0 {
			return
		}
		switch data.Options[0].Name {
		case "create":
			c.handleCreate(s, i, data.Options[0])
		case "list":
			c.handleList(s, i)
		case "cancel":
			c.handleCancel(s, i, data.Options[0])
		}
	case discordgo.InteractionMessageComponent:
		c.handleButton(s, i)
	}
}

func (c *Cog) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	var title, when, description, location string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "title":
			title = opt.StringValue()
		case "when":
			when = opt.StringValue()
		case "description":
			description = opt.StringValue()
		case "where":
			location = opt.StringValue()
		}
	}

	startsAt, err := time.ParseInLocation(timeLayout, when, time.Local)
	if err != nil {
		c.respond(s, i, fmt.Sprintf("Couldn't read %q — use the format `2026-09-04 19:00`.", when))
		return
	}
	if startsAt.Before(c.now()) {
		c.respond(s, i, "That start time is in the past.")
		return
	}

	a, err := c.repo.Insert(&Activity{
		GuildID:     c.guildID,
		ChannelID:   c.channelID,
		Title:       title,
		Description: description,
		Location:    location,
		HostID:      interactionUser(i).ID,
		StartsAt:    startsAt,
	})
	if err != nil {
		c.log.Error("creating activity", "error", err)
		c.respond(s, i, "Something went wrong creating the activity.")
		return
	}

	msg, err := s.ChannelMessageSendComplex(c.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{BuildEmbed(a, nil)},
		Components: Buttons(a),
	})
	if err != nil {
		c.log.Error("posting activity embed", "activity", a.ID, "error", err)
		c.respond(s, i, fmt.Sprintf("Activity #%d created, but posting the embed failed.", a.ID))
		return
	}

	if err := c.repo.SetMessageID(a.ID, msg.ID); err != nil {
		c.log.Error("recording activity message", "activity", a.ID, "error", err)
	}

	c.respond(s, i, fmt.Sprintf("Activity #%d created.", a.ID))
}

func (c *Cog) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	activities, err := c.repo.Upcoming(c.guildID, c.now())
	if err != nil {
		c.log.Error("listing activities", "error", err)
		c.respond(s, i, "Something went wrong listing activities.")
		return
	}

	if len(activities) == 0 {
		c.respond(s, i, "No upcoming activities. Start one with `/activity create`.")
		return
	}

	content := "Upcoming activities:\n"
	for _, a := range activities {
		content += fmt.Sprintf("`#%d` **%s** — <t:%d:F>\n", a.ID, a.Title, a.StartsAt.Unix())
	}
	c.respond(s, i, content)
}

func (c *Cog) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	var id int64
	for _, opt := range sub.Options {
		if opt.Name == "id" {
			id = opt.IntValue()
		}
	}

	a, err := c.repo.GetByID(id)
	if err != nil {
		c.respond(s, i, fmt.Sprintf("No activity #%d.", id))
		return
	}
	if a.HostID != interactionUser(i).ID {
		c.respond(s, i, "Only the host can cancel an activity.")
		return
	}
	if a.Cancelled {
		c.respond(s, i, fmt.Sprintf("Activity #%d is already cancelled.", id))
		return
	}

	if err := c.repo.Cancel(id); err != nil {
		c.log.Error("cancelling activity", "activity", id, "error", err)
		c.respond(s, i, "Something went wrong cancelling the activity.")
		return
	}

	a.Cancelled = true
	c.refreshMessage(s, a)
	c.respond(s, i, fmt.Sprintf("Activity #%d cancelled.", id))
}

// handleButton moves the pressing user between RSVP buckets and
// refreshes the embed in place.
func (c *Cog) handleButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	activityID, response, ok := ParseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	a, err := c.repo.GetByID(activityID)
	if err != nil || a.Cancelled {
		return
	}

	user := interactionUser(i)
	if err := c.repo.SetRSVP(activityID, user.ID, user.Username, response); err != nil {
		c.log.Error("recording rsvp", "activity", activityID, "user", user.ID, "error", err)
		return
	}

	rsvps, err := c.repo.RSVPs(activityID)
	if err != nil {
		c.log.Error("loading rsvps", "activity", activityID, "error", err)
		return
	}

	components := Buttons(a)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{BuildEmbed(a, rsvps)},
			Components: components,
		},
	}); err != nil {
		c.log.Error("updating activity embed", "activity", activityID, "error", err)
	}
}

// refreshMessage re-renders the posted embed after a state change.
func (c *Cog) refreshMessage(s *discordgo.Session, a *Activity) {
	if a.MessageID == "" {
		return
	}

	rsvps, err := c.repo.RSVPs(a.ID)
	if err != nil {
		c.log.Error("loading rsvps", "activity", a.ID, "error", err)
		return
	}

	embeds := []*discordgo.MessageEmbed{BuildEmbed(a, rsvps)}
	components := Buttons(a)
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    a.ChannelID,
		ID:         a.MessageID,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		c.log.Error("editing activity embed", "activity", a.ID, "error", err)
	}
}

// respond sends an ephemeral reply to an interaction.
func (c *Cog) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.log.Error("responding to interaction", "error", err)
	}
}

// interactionUser returns the invoking user for guild and DM
// interactions alike.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
