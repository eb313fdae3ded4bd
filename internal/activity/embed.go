package activity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	colorActive    = 0x3498db // blue
	colorCancelled = 0xe74c3c // red

	customIDPrefix = "activity:rsvp:"
)

// BuildEmbed renders the activity and its RSVP buckets.
func BuildEmbed(a *Activity, rsvps []*RSVP) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       colorActive,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "When", Value: fmt.Sprintf("<t:%d:F>", a.StartsAt.Unix()), Inline: true},
			{Name: "Host", Value: fmt.Sprintf("<@%s>", a.HostID), Inline: true},
		},
	}

	if a.Cancelled {
		embed.Color = colorCancelled
		embed.Title = "[Cancelled] " + a.Title
	}

	if a.Location != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Where", Value: a.Location, Inline: true})
	}

	for _, response := range []Response{Going, Maybe, Declined} {
		names := bucket(rsvps, response)
		value := "–"
		if len(names) > 0 {
			value = strings.Join(names, "\n")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s (%d)", response.Label(), len(names)),
			Value:  value,
			Inline: false,
		})
	}

	return embed
}

// bucket collects the display names for one response, in RSVP order.
func bucket(rsvps []*RSVP, response Response) []string {
	var names []string
	for _, r := range rsvps {
		if r.Response == response {
			names = append(names, r.UserName)
		}
	}
	return names
}

// Buttons returns the RSVP button row for an activity. Cancelled
// activities get no buttons.
func Buttons(a *Activity) []discordgo.MessageComponent {
	if a.Cancelled {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Join",
					Style:    discordgo.PrimaryButton,
					CustomID: rsvpCustomID(a.ID, Going),
				},
				discordgo.Button{
					Label:    "Maybe",
					Style:    discordgo.SecondaryButton,
					CustomID: rsvpCustomID(a.ID, Maybe),
				},
				discordgo.Button{
					Label:    "Can't make it",
					Style:    discordgo.DangerButton,
					CustomID: rsvpCustomID(a.ID, Declined),
				},
			},
		},
	}
}

// rsvpCustomID encodes an RSVP button: "activity:rsvp:<id>:<response>".
func rsvpCustomID(activityID int64, response Response) string {
	return fmt.Sprintf("%s%d:%s", customIDPrefix, activityID, response)
}

// ParseCustomID decodes an RSVP button custom ID. ok is false for
// custom IDs belonging to other components.
func ParseCustomID(customID string) (activityID int64, response Response, ok bool) {
	rest, found := strings.CutPrefix(customID, customIDPrefix)
	if !found {
		return 0, "", false
	}

	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || !ValidResponse(parts[1]) {
		return 0, "", false
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}

	return id, Response(parts[1]), true
}
