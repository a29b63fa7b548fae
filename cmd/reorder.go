package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/desertthunder/chronolist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ReorderRun reconciles every non-excluded playlist owned by the current user.
func (r *Runner) ReorderRun(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	var playlists []models.Playlist
	err = r.withSpinner(ctx, "Fetching playlists...", func(ctx context.Context) error {
		owned, err := r.ownedPlaylists(ctx, svc)
		playlists = owned
		return err
	})
	if err != nil {
		return err
	}

	selected := tasks.SelectPlaylists(playlists, r.config.Reorder.Exclude, cmd.StringSlice("only"))
	if len(selected) == 0 {
		return r.writePlain("No playlists to reorder\n")
	}

	engine, err := r.engine(ctx, svc, cmd.Bool("dry-run"), cmd.Int("concurrency"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Reordering %d playlists", len(selected)))

	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := r.reportProgress(progressCh, engine.Concurrency() == 1 && isTerminal(r.output))

	batch := engine.ReconcileAll(ctx, selected, progressCh)
	close(progressCh)
	<-done

	r.writeBatch(batch)

	if err := ctx.Err(); err != nil {
		return err
	}
	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d playlists failed", batch.Failed, len(batch.Results))
	}
	return nil
}

// ReorderPlaylist reconciles a single playlist by id.
func (r *Runner) ReorderPlaylist(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.findPlaylist(ctx, svc, cmd.String("id"), true)
	if err != nil {
		return err
	}

	if r.config.Reorder.IsExcluded(playlist.Name) {
		return fmt.Errorf("%w: %q is in reorder.exclude", shared.ErrInvalidArgument, playlist.Name)
	}

	engine, err := r.engine(ctx, svc, cmd.Bool("dry-run"), 1)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := r.reportProgress(progressCh, isTerminal(r.output))

	result, err := engine.Reconcile(ctx, playlist, progressCh)
	close(progressCh)
	<-done

	r.writeResult(result)
	return err
}

// reportProgress prints updates until progress is closed.
//
// With inline set, append progress is redrawn on a single line; otherwise every 25th append is printed.
func (r *Runner) reportProgress(progress <-chan tasks.ProgressUpdate, inline bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.ReadSnapshot:
				if update.Step == 0 {
					r.writePlain("\n%s\n", update.Playlist)
				}
				r.writePlain("  %s\n", update.Message)
			case tasks.WriteBackup, tasks.ClearPlaylist:
				r.writePlain("  %s\n", update.Message)
			case tasks.AppendTracks:
				r.writeAppendProgress(update, inline)
			case tasks.Finished:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeAppendProgress(update tasks.ProgressUpdate, inline bool) {
	switch {
	case inline:
		r.writePlain("\r  Progress: [ %d / %d ]", update.Step, update.Total)
		if update.Step == update.Total {
			r.writePlain("\n")
		}
	case update.Step == update.Total || update.Step%25 == 0:
		r.writePlain("  [%s] Progress: [ %d / %d ]\n", update.Playlist, update.Step, update.Total)
	}
}

func (r *Runner) writeBatch(batch *tasks.BatchResult) {
	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Reorder Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	for _, result := range batch.Results {
		r.writePlain("%s %s: %s\n", statusMark(result.Status), result.Playlist.Name, result.Summary())
	}
	r.writePlain("\nCompleted: %d  Skipped: %d  Failed: %d  Dry run: %d\n",
		batch.Completed, batch.Skipped, batch.Failed, batch.DryRun)
}

func (r *Runner) writeResult(result *tasks.ReconcileResult) {
	if result == nil {
		return
	}
	r.writePlain("\n%s %s: %s\n", statusMark(result.Status), result.Playlist.Name, result.Summary())
	if result.BackupPath != "" {
		r.writePlain("Backup: %s\n", result.BackupPath)
	}
}

func statusMark(status models.RunStatus) string {
	switch status {
	case models.RunCompleted, models.RunDryRun:
		return "✓"
	case models.RunSkipped:
		return "⚠"
	default:
		return "✗"
	}
}
