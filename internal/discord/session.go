// Package discord wraps the Discord session and renders notifications.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Connect opens a bot session with the intents the cogs need.
func Connect(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening gateway connection: %w", err)
	}

	return s, nil
}
