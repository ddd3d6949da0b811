package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/figx/internal/server"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/ui"
	"github.com/desertthunder/figx/internal/web"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	state, err := r.viewState(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	r.SetLogger(fileLogger)

	engine, err := r.listing()
	if err != nil {
		return err
	}

	r.logger.Info("starting TUI", "backend", r.backend.Origin(), "source", state.Source)
	if err := ui.Run(ctx, ui.Options{
		Engine:      engine,
		State:       state,
		Placeholder: r.config.UI.PlaceholderPoster,
		Origin:      r.backend.Origin(),
		Logger:      r.logger,
	}); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Serve runs the HTML preview of the catalog until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	app, err := web.New(web.Options{
		Gateway:     backend,
		Movies:      backend,
		Placeholder: r.config.UI.PlaceholderPoster,
		Logger:      shared.WithLogger(r.logger, "component", "web"),
		Metrics:     r.metrics,
		Registry:    r.registry,
	})
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	r.logger.Info("serving catalog preview", "addr", addr, "backend", backend.Origin())
	return server.New(addr, app.Handler(), r.logger).Run(ctx)
}
