// Package config loads agscogs configuration from YAML with env overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full bot configuration.
type Config struct {
	Discord    DiscordConfig    `yaml:"discord"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Activities ActivitiesConfig `yaml:"activities"`
	Gamewatch  GamewatchConfig  `yaml:"gamewatch"`
	Reminders  []ReminderConfig `yaml:"reminders"`
}

// DiscordConfig holds connection settings for the Discord session.
type DiscordConfig struct {
	Token   string `yaml:"token,omitempty"`
	GuildID string `yaml:"guild_id"`
}

// MonitorConfig configures the property monitor cog.
type MonitorConfig struct {
	MaxConcurrent int64          `yaml:"max_concurrent"`
	Targets       []TargetConfig `yaml:"targets"`
}

// TargetConfig describes one monitored search.
type TargetConfig struct {
	Name                 string   `yaml:"name"`
	Source               string   `yaml:"source"` // rightmove | portal
	SearchURL            string   `yaml:"search_url"`
	ChannelID            string   `yaml:"channel_id"`
	BannedTypes          []string `yaml:"banned_types,omitempty"`
	BannedTypeSubstrings []string `yaml:"banned_type_substrings,omitempty"`
	RetentionDays        int      `yaml:"retention_days"`
	MaxPages             int      `yaml:"max_pages"`

	// Time-of-day windows ("08:00-23:00") during which the short
	// interval applies. Outside them the idle interval is used.
	ActiveWindows []string `yaml:"active_windows,omitempty"`

	ActiveIntervalMinSecs int `yaml:"active_interval_min_secs"`
	ActiveIntervalMaxSecs int `yaml:"active_interval_max_secs"`
	IdleIntervalMinSecs   int `yaml:"idle_interval_min_secs"`
	IdleIntervalMaxSecs   int `yaml:"idle_interval_max_secs"`
}

// ActivitiesConfig configures the activities cog.
type ActivitiesConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
}

// GamewatchConfig configures the game-server health cog.
type GamewatchConfig struct {
	ChannelID        string         `yaml:"channel_id"`
	IntervalSecs     int            `yaml:"interval_secs"`
	TimeoutSecs      int            `yaml:"timeout_secs"`
	FailureThreshold int            `yaml:"failure_threshold"`
	Servers          []ServerConfig `yaml:"servers"`
}

// ServerConfig is one monitored game server.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"` // host:port
}

// ReminderConfig is one scheduled reminder post.
type ReminderConfig struct {
	Name      string `yaml:"name"`
	Schedule  string `yaml:"schedule"` // cron spec, e.g. "0 18 * * MON"
	ChannelID string `yaml:"channel_id"`
	Title     string `yaml:"title"`
	Message   string `yaml:"message"`
}

// DefaultPath returns the path to the config file: ~/.config/agscogs/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agscogs", "config.yaml"), nil
}

// Load reads the config file at path, applies defaults and env overrides,
// and validates the result. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides secrets from the environment. The token never has to
// live in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("AGSCOGS_DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("AGSCOGS_GUILD_ID"); v != "" {
		c.Discord.GuildID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Monitor.MaxConcurrent <= 0 {
		c.Monitor.MaxConcurrent = 2
	}
	for i := range c.Monitor.Targets {
		t := &c.Monitor.Targets[i]
		if t.Source == "" {
			t.Source = "rightmove"
		}
		if t.RetentionDays <= 0 {
			t.RetentionDays = 14
		}
		if t.MaxPages <= 0 {
			t.MaxPages = 3
		}
		if t.ActiveIntervalMinSecs <= 0 {
			t.ActiveIntervalMinSecs = 540
		}
		if t.ActiveIntervalMaxSecs <= 0 {
			t.ActiveIntervalMaxSecs = 660
		}
		if t.IdleIntervalMinSecs <= 0 {
			t.IdleIntervalMinSecs = 900
		}
		if t.IdleIntervalMaxSecs <= 0 {
			t.IdleIntervalMaxSecs = 2700
		}
	}
	if c.Gamewatch.IntervalSecs <= 0 {
		c.Gamewatch.IntervalSecs = 60
	}
	if c.Gamewatch.TimeoutSecs <= 0 {
		c.Gamewatch.TimeoutSecs = 5
	}
	if c.Gamewatch.FailureThreshold <= 0 {
		c.Gamewatch.FailureThreshold = 3
	}
}

// Validate checks the config for inconsistencies that would otherwise
// surface mid-run.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, t := range c.Monitor.Targets {
		if t.Name == "" {
			return fmt.Errorf("monitor target missing name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate monitor target %q", t.Name)
		}
		seen[t.Name] = true

		if t.Source != "rightmove" && t.Source != "portal" {
			return fmt.Errorf("target %q: unknown source %q", t.Name, t.Source)
		}
		if t.SearchURL == "" {
			return fmt.Errorf("target %q: search_url is required", t.Name)
		}
		if t.ChannelID == "" {
			return fmt.Errorf("target %q: channel_id is required", t.Name)
		}
		if t.ActiveIntervalMinSecs > t.ActiveIntervalMaxSecs {
			return fmt.Errorf("target %q: active interval min %d > max %d",
				t.Name, t.ActiveIntervalMinSecs, t.ActiveIntervalMaxSecs)
		}
		if t.IdleIntervalMinSecs > t.IdleIntervalMaxSecs {
			return fmt.Errorf("target %q: idle interval min %d > max %d",
				t.Name, t.IdleIntervalMinSecs, t.IdleIntervalMaxSecs)
		}
		for _, w := range t.ActiveWindows {
			if _, _, err := ParseWindow(w); err != nil {
				return fmt.Errorf("target %q: %w", t.Name, err)
			}
		}
	}

	for _, s := range c.Gamewatch.Servers {
		if s.Name == "" || s.Address == "" {
			return fmt.Errorf("gamewatch server needs both name and address")
		}
	}

	for _, r := range c.Reminders {
		if r.Name == "" || r.Schedule == "" || r.ChannelID == "" {
			return fmt.Errorf("reminder %q needs name, schedule and channel_id", r.Name)
		}
	}

	return nil
}

// ParseWindow parses a "HH:MM-HH:MM" time-of-day window into minutes
// since midnight. Windows wrapping midnight ("22:00-06:00") are allowed.
func ParseWindow(s string) (start, end int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid window %q: want HH:MM-HH:MM", s)
	}
	start, err = parseClock(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window %q: %w", s, err)
	}
	end, err = parseClock(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window %q: %w", s, err)
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	tod, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	return tod.Hour()*60 + tod.Minute(), nil
}
