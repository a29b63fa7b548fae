package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/urfave/cli/v3"
)

// History shows recent reorder runs from the run ledger, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo := r.ledger(ctx)
	if repo == nil {
		return fmt.Errorf("%w: run ledger", shared.ErrServiceUnavailable)
	}

	limit := cmd.Int("limit")

	var runs []*models.RunRecord
	var err error
	if playlistID := cmd.String("playlist"); playlistID != "" {
		runs, err = repo.ListByPlaylist(playlistID, limit)
	} else {
		runs, err = repo.List(limit)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet\n")
	}

	r.writePlain("Found %d runs:\n\n", len(runs))
	for _, run := range runs {
		r.writePlain("%s %s  %s\n", statusMark(run.Status), run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.PlaylistName)
		r.writePlain("   Status: %s\n", run.Status)
		r.writePlain("   Tracks: %d/%d added", run.TracksAdded, run.TracksTotal)
		if run.TracksFailed > 0 {
			r.writePlain(", %d failed", run.TracksFailed)
		}
		if run.TracksDropped > 0 {
			r.writePlain(", %d dropped", run.TracksDropped)
		}
		r.writePlain("\n")
		if run.BatchesFailed > 0 {
			r.writePlain("   Failed removal batches: %d\n", run.BatchesFailed)
		}
		if d := run.Duration(); d > 0 {
			r.writePlain("   Duration: %s\n", d.Round(time.Second))
		}
		if run.BackupPath != "" {
			r.writePlain("   Backup: %s\n", run.BackupPath)
		}
		if run.ErrorMessage != "" {
			r.writePlain("   Error: %s\n", run.ErrorMessage)
		}
		r.writePlain("   ID: %s\n\n", run.RunID)
	}
	return nil
}

// HistoryPrune deletes runs that started before --older-than ago.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	repo := r.ledger(ctx)
	if repo == nil {
		return fmt.Errorf("%w: run ledger", shared.ErrServiceUnavailable)
	}

	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidArgument)
	}

	n, err := repo.Prune(time.Now().Add(-age))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d runs older than %s\n", n, age)
}

// HistoryDelete removes a single run by id.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	repo := r.ledger(ctx)
	if repo == nil {
		return fmt.Errorf("%w: run ledger", shared.ErrServiceUnavailable)
	}

	id := cmd.String("id")
	if err := repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed run %s\n", id)
}
