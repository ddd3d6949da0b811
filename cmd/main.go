package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/figx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:    "figx",
		Usage:   "Browse the figflix catalog and import movies from TMDb",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("FIGX_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   runner.Before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotConfirmed):
			logger.Warn("cancelled")
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}

// Before loads the configuration named by --config before any command runs.
//
// A missing file is not an error: defaults apply and `figx setup config` writes one.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
	}
	r.SetConfig(config, path)

	level := cmd.String("log-level")
	if level == "" {
		level = config.Log.Level
	}
	if level != "" {
		ll, err := shared.ParseLevel(level)
		if err != nil {
			return ctx, err
		}
		shared.SetLogLevel(r.logger, ll)
	}
	return ctx, nil
}
