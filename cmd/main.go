package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "chronolist",
		Usage:    "Reorder Spotify playlists by album release date",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	runner.close()

	if err != nil {
		switch {
		case errors.Is(err, shared.ErrMissingCredentials):
			logger.Fatal("set CLIENT_ID and CLIENT_SECRET in .env or config.toml", "error", err)
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Fatal("run `chronolist auth` to authorize", "error", err)
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			os.Exit(130)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
