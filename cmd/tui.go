package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/desertthunder/chronolist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for previewing and reordering a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	dryRun := cmd.Bool("dry-run")
	engine, err := r.engine(ctx, svc, dryRun, 1)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, svc, engine, ui.Options{
		Exclude: r.config.Reorder.Exclude,
		DryRun:  dryRun,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
