package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chronolist/internal/formatter"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Preview prints the chronological order of a playlist without changing it.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.findPlaylist(ctx, svc, cmd.String("id"), false)
	if err != nil {
		return err
	}

	var snap *models.Snapshot
	err = r.withSpinner(ctx, fmt.Sprintf("Reading %s...", playlist.Name), func(ctx context.Context) error {
		read, err := tasks.NewSnapshotReader(svc, r.logger).Read(ctx, playlist)
		snap = read
		return err
	})
	if err != nil {
		return err
	}

	format := formatter.Format(cmd.String("format"))
	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(snap, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("preview written", "playlist", playlist.Name, "path", path)
		return r.writePlain("✓ Preview of %s written to %s\n", playlist.Name, path)
	}

	data, err := formatter.Export(snap, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
