package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BJPickles/AGSCogs-sub000/internal/activity"
	"github.com/BJPickles/AGSCogs-sub000/internal/cog"
	"github.com/BJPickles/AGSCogs-sub000/internal/config"
	"github.com/BJPickles/AGSCogs-sub000/internal/discord"
	"github.com/BJPickles/AGSCogs-sub000/internal/gamewatch"
	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
	"github.com/BJPickles/AGSCogs-sub000/internal/logging"
	"github.com/BJPickles/AGSCogs-sub000/internal/monitor"
	"github.com/BJPickles/AGSCogs-sub000/internal/portal"
	"github.com/BJPickles/AGSCogs-sub000/internal/reminder"
	"github.com/BJPickles/AGSCogs-sub000/internal/rightmove"
)

func newRunCmd() *cobra.Command {
	var devMode bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Long:  "Connect to Discord and run every configured cog until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(devMode)
		},
	}

	cmd.Flags().BoolVar(&devMode, "dev", false, "human-readable debug logging")

	return cmd
}

func runBot(devMode bool) error {
	logging.Setup(devMode)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("no Discord token: set discord.token or AGSCOGS_DISCORD_TOKEN")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	session, err := discord.Connect(cfg.Discord.Token)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Error("closing discord session", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Activities.Enabled {
		activities := activity.NewCog(session, activity.NewRepository(database),
			cfg.Discord.GuildID, cfg.Activities.ChannelID)
		if err := activities.Register(); err != nil {
			return err
		}
	}

	if len(cfg.Reminders) > 0 {
		reminders := reminder.NewCog(session, reminder.NewRepository(database), cfg.Reminders)
		if err := reminders.Start(); err != nil {
			return err
		}
		defer reminders.Stop()
	}

	var cogs []cog.Cog

	mon := monitor.New(listing.NewRepository(database),
		discord.NewNotifier(session), cfg.Monitor.MaxConcurrent)
	for _, tc := range cfg.Monitor.Targets {
		target, err := buildTarget(tc)
		if err != nil {
			return err
		}
		cogs = append(cogs, cog.Func{
			CogName: "monitor:" + tc.Name,
			RunFunc: func(ctx context.Context) error {
				return mon.Run(ctx, target)
			},
		})
	}

	if len(cfg.Gamewatch.Servers) > 0 {
		watcher := gamewatch.NewWatcher(session,
			gamewatch.NewRepository(database), cfg.Gamewatch)
		cogs = append(cogs, cog.Func{
			CogName: "gamewatch",
			RunFunc: func(ctx context.Context) error {
				watcher.Run(ctx)
				return nil
			},
		})
	}

	slog.Info("agscogs running",
		"targets", len(cfg.Monitor.Targets),
		"servers", len(cfg.Gamewatch.Servers),
		"reminders", len(cfg.Reminders))

	return cog.RunAll(ctx, slog.Default(), cogs...)
}

// buildTarget turns one config entry into a runnable monitor target.
func buildTarget(tc config.TargetConfig) (monitor.Target, error) {
	schedule, err := monitor.NewSchedule(tc)
	if err != nil {
		return monitor.Target{}, fmt.Errorf("target %q: %w", tc.Name, err)
	}

	filter := listing.NewTypeFilter(tc.BannedTypes, tc.BannedTypeSubstrings)

	var source monitor.Source
	switch tc.Source {
	case "rightmove":
		source = rightmove.NewClient(rightmove.Options{
			MaxPages:    tc.MaxPages,
			RandomDelay: 2 * time.Second,
			Filter:      filter,
		})
	case "portal":
		base, err := siteBase(tc.SearchURL)
		if err != nil {
			return monitor.Target{}, fmt.Errorf("target %q: %w", tc.Name, err)
		}
		source = portal.NewClient(portal.Options{
			BaseURL: base,
			Filter:  filter,
		})
	default:
		return monitor.Target{}, fmt.Errorf("target %q: unknown source %q", tc.Name, tc.Source)
	}

	return monitor.Target{
		Name:          tc.Name,
		SearchURL:     tc.SearchURL,
		ChannelID:     tc.ChannelID,
		RetentionDays: tc.RetentionDays,
		Schedule:      schedule,
		Source:        source,
	}, nil
}

// siteBase reduces a search URL to its scheme and host, for resolving
// relative card links.
func siteBase(searchURL string) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("parsing search url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("search url %q has no scheme or host", searchURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
