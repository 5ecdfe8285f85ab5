package main

import "github.com/urfave/cli/v3"

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Output JSON",
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web dashboard",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the dashboard in a browser",
			},
		},
		Action: r.Serve,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show whether a Spotify account is connected",
		Flags:  []cli.Flag{jsonFlag},
		Action: r.Status,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored Spotify tokens",
		Action: r.Logout,
	}
}

func todayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "today",
		Usage:  "Summarize what you played since midnight",
		Flags:  []cli.Flag{jsonFlag},
		Action: r.Today,
	}
}

func receiptCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "receipt",
		Usage: "Print your top tracks as a receipt",
		Flags: []cli.Flag{
			jsonFlag,
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Time range: short_term, medium_term or long_term",
				Value:   "short_term",
			},
		},
		Action: r.Receipt,
	}
}

func wrappedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "wrapped",
		Usage:  "Show your monthly recap",
		Flags:  []cli.Flag{jsonFlag},
		Action: r.Wrapped,
	}
}

func moodCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "mood",
		Usage:  "Describe the mood of today's listening",
		Flags:  []cli.Flag{jsonFlag},
		Action: r.Mood,
	}
}

func nowPlayingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "now-playing",
		Aliases: []string{"np"},
		Usage:   "Show the current track",
		Flags:   []cli.Flag{jsonFlag},
		Action:  r.NowPlaying,
	}
}

func initConfigCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init-config",
		Usage:  "Write an example configuration file to --config",
		Action: r.InitConfig,
	}
}
