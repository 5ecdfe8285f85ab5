// Command spotify-dashboard serves a personal listening dashboard for a
// Spotify account and prints the same views in the terminal.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/justestif/go-spotify-dashboard/internal/config"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify-dashboard",
		Usage:   "Personal Spotify listening dashboard",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   config.DefaultPath(),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: r.register(),
		After: func(context.Context, *cli.Command) error {
			return r.Close()
		},
	}
}
