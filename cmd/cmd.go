// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// globalFlags are available to every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Path to .env file with CLIENT_ID, CLIENT_SECRET and REDIRECT_URI",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the run ledger database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize chronolist with Spotify (OAuth2 authorization code flow)",
		Action: r.AuthLogin,
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Open the browser and save the resulting tokens",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a token is saved and who it belongs to",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand lists the current user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List playlists owned by the current user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

// previewCommand prints the sorted order without mutating the playlist
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Show the chronological order for a playlist without changing it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Preview,
	}
}

// reorderCommand rewrites playlists in release-date order
func reorderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reorder",
		Usage: "Reorder playlists chronologically by album release date",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Reorder every owned playlist that is not excluded",
				Flags: []cli.Flag{
					dryRunFlag(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Playlists processed at once (defaults to reorder.concurrency)",
					},
					&cli.StringSliceFlag{
						Name:  "only",
						Usage: "Limit to playlists with this name or ID (repeatable)",
					},
				},
				Action: r.ReorderRun,
			},
			{
				Name:  "playlist",
				Usage: "Reorder a single playlist",
				Flags: []cli.Flag{
					dryRunFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
				},
				Action: r.ReorderPlaylist,
			},
		},
	}
}

func dryRunFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Read and back up only; do not clear or re-add",
	}
}

// historyCommand shows the run ledger
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent reorder runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only runs for this playlist ID",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete runs older than a given age",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age cutoff, e.g. 720h",
						Value: 90 * 24 * time.Hour,
					},
				},
				Action: r.HistoryPrune,
			},
			{
				Name:  "delete",
				Usage: "Delete a single run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Run ID",
						Required: true,
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive reordering.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI to preview and reorder a playlist",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Back up only",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/chronolist-tui.log",
			},
		},
		Action: r.TUI,
	}
}
