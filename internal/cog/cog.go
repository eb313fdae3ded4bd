// Package cog runs the bot's independent features side by side.
package cog

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Cog is one long-running bot feature.
type Cog interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a plain run function into a Cog.
type Func struct {
	CogName string
	RunFunc func(ctx context.Context) error
}

func (f Func) Name() string { return f.CogName }

func (f Func) Run(ctx context.Context) error { return f.RunFunc(ctx) }

// RunAll runs every cog until ctx is cancelled or one of them fails.
// Context cancellation is a clean shutdown, not an error.
func RunAll(ctx context.Context, log *slog.Logger, cogs ...Cog) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range cogs {
		c := c
		g.Go(func() error {
			log.Info("cog started", "cog", c.Name())
			err := c.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("cog stopped", "cog", c.Name(), "error", err)
				return err
			}
			log.Info("cog stopped", "cog", c.Name())
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
