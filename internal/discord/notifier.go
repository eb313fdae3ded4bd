package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
	"github.com/BJPickles/AGSCogs-sub000/internal/monitor"
)

// Embed colors per event.
const (
	colorNew      = 0x2ecc71 // green
	colorChanged  = 0xf39c12 // amber
	colorVanished = 0x95a5a6 // grey
)

// messenger is the subset of discordgo.Session the notifier needs.
// Tests substitute a fake.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Notifier maintains one embed message per tracked property.
type Notifier struct {
	session messenger
}

// NewNotifier creates a Notifier over an open session.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// Publish creates the property embed, or edits it in place when the
// notification carries an existing message ID.
func (n *Notifier) Publish(channelID string, note monitor.Notification) (string, error) {
	embed := buildEmbed(note)

	if note.MessageID == "" {
		msg, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		})
		if err != nil {
			return "", fmt.Errorf("sending property embed: %w", err)
		}
		return msg.ID, nil
	}

	embeds := []*discordgo.MessageEmbed{embed}
	msg, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: channelID,
		ID:      note.MessageID,
		Embeds:  &embeds,
	})
	if err != nil {
		return "", fmt.Errorf("editing property embed: %w", err)
	}
	return msg.ID, nil
}

// Delete removes a property embed message.
func (n *Notifier) Delete(channelID, messageID string) error {
	if err := n.session.ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("deleting property embed: %w", err)
	}
	return nil
}

// buildEmbed renders the tracked property into an embed.
func buildEmbed(note monitor.Notification) *discordgo.MessageEmbed {
	tp := note.Property

	embed := &discordgo.MessageEmbed{
		Title: tp.Address,
		URL:   tp.URL,
		Color: eventColor(note.Event),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Price", Value: FormatPrice(tp.Price), Inline: true},
		},
	}

	if tp.PropertyType != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Type", Value: tp.PropertyType, Inline: true})
	}
	if tp.Agent != "" {
		agent := tp.Agent
		if tp.AgentURL != "" {
			agent = fmt.Sprintf("[%s](%s)", tp.Agent, tp.AgentURL)
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Agent", Value: agent, Inline: true})
	}
	if tp.ImageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: tp.ImageURL}
	}

	if status := statusLine(note); status != "" {
		embed.Description = status
	}

	return embed
}

// statusLine summarizes the event for the embed description.
func statusLine(note monitor.Notification) string {
	var parts []string

	switch note.Event {
	case monitor.EventNew:
		parts = append(parts, "New listing")
	case monitor.EventVanished:
		parts = append(parts, "No longer listed")
	}

	for _, r := range note.Reasons {
		switch r {
		case listing.ReasonPriceChange:
			parts = append(parts, "Price changed")
		case listing.ReasonUnderOffer:
			if note.Property.UnderOffer {
				parts = append(parts, "Now under offer")
			} else {
				parts = append(parts, "No longer under offer")
			}
		case listing.ReasonBackOnMarket:
			parts = append(parts, "Back on the market")
		}
	}

	if note.Property.UnderOffer && note.Event == monitor.EventNew {
		parts = append(parts, "Under offer")
	}

	return strings.Join(parts, " · ")
}

func eventColor(e monitor.EventKind) int {
	switch e {
	case monitor.EventChanged:
		return colorChanged
	case monitor.EventVanished:
		return colorVanished
	default:
		return colorNew
	}
}

// FormatPrice renders an integer price as "£1,250,000".
func FormatPrice(p int64) string {
	s := fmt.Sprintf("%d", p)
	if len(s) <= 3 {
		return "£" + s
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return "£" + sb.String()
}
