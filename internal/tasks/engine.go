package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
	"golang.org/x/sync/errgroup"
)

// EngineOpts configures a [ReorderEngine].
type EngineOpts struct {
	DryRun      bool             // read and back up only
	Concurrency int              // playlists reconciled at once by ReconcileAll (default 1)
	Recorder    RunRecorder      // optional run ledger
	Logger      *log.Logger      // defaults to a discarding logger
	Now         func() time.Time // clock for run timestamps
}

// ReorderEngine rewrites playlists so tracks appear in release-date order.
type ReorderEngine struct {
	reader  *SnapshotReader
	backup  BackupWriter
	clearer *BulkClearer
	writer  *SequentialWriter
	opts    EngineOpts
	locks   keyedMutex
}

// NewReorderEngine wires the reader, clearer and writer around svc.
func NewReorderEngine(svc services.PlaylistService, backup BackupWriter, pacer Pacer, opts EngineOpts) *ReorderEngine {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &ReorderEngine{
		reader:  NewSnapshotReader(svc, opts.Logger),
		backup:  backup,
		clearer: NewBulkClearer(svc, opts.Logger),
		writer:  NewSequentialWriter(svc, pacer, opts.Logger),
		opts:    opts,
	}
}

// Concurrency is the number of playlists ReconcileAll runs at once.
func (e *ReorderEngine) Concurrency() int {
	return e.opts.Concurrency
}

// Preview reads and sorts a playlist without writing a backup or mutating it.
func (e *ReorderEngine) Preview(ctx context.Context, playlist models.Playlist) (*models.Snapshot, error) {
	return e.reader.Read(ctx, playlist)
}

// Reconcile runs read, backup, clear and re-add for one playlist, strictly in that order.
//
// The clear step is skipped when the snapshot is incomplete or empty, so a failed read never empties a playlist.
// A backup failure aborts the playlist before anything is removed.
func (e *ReorderEngine) Reconcile(ctx context.Context, playlist models.Playlist, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	unlock := e.locks.lock(playlist.ID)
	defer unlock()

	logger := shared.WithLogger(e.opts.Logger, "playlist", playlist.Name)
	result := &ReconcileResult{
		RunID:     shared.GenerateID(),
		Playlist:  playlist,
		StartedAt: e.opts.Now(),
	}

	err := e.reconcile(ctx, logger, result, progress)
	result.Err = err
	result.CompletedAt = e.opts.Now()

	switch {
	case result.Status != "":
	case err != nil:
		result.Status = models.RunFailed
	default:
		result.Status = models.RunCompleted
	}

	e.record(logger, result)
	sendProgress(progress, finishedUpdate(result))
	logger.Info("playlist finished", "status", result.Status, "summary", result.Summary())
	return result, err
}

func (e *ReorderEngine) reconcile(ctx context.Context, logger *log.Logger, result *ReconcileResult, progress chan<- ProgressUpdate) error {
	playlist := result.Playlist

	sendProgress(progress, readingUpdate(playlist.Name))
	snap, err := e.reader.Read(ctx, playlist)
	result.Snapshot = snap
	if err != nil {
		result.Status = models.RunSkipped
		return err
	}
	sendProgress(progress, snapshotUpdate(playlist.Name, snap))

	if snap.Len() == 0 {
		logger.Info("nothing to reorder")
		result.Status = models.RunSkipped
		return nil
	}

	path, err := e.backup.Write(snap, playlist.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrBackupFailed, playlist.Name, err)
	}
	result.BackupPath = path
	sendProgress(progress, backupUpdate(playlist.Name, path))
	logger.Info("backup written", "path", path, "tracks", snap.Len())

	if e.opts.DryRun {
		result.Status = models.RunDryRun
		return nil
	}

	result.Clear = e.clearer.clear(ctx, playlist.ID, playlist.Name, snap.UniqueIDs(), progress)
	result.Write = e.writer.write(ctx, playlist.ID, playlist.Name, snap.IDs(), progress)

	if result.Write.Interrupted {
		return fmt.Errorf("interrupted after %d of %d tracks: %w", result.Write.Added, snap.Len(), context.Cause(ctx))
	}
	return nil
}

func (e *ReorderEngine) record(logger *log.Logger, result *ReconcileResult) {
	if e.opts.Recorder == nil {
		return
	}
	if err := e.opts.Recorder.Create(result.Record()); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}

// ReconcileAll reconciles playlists with at most Concurrency running at once.
//
// One playlist's failure never stops the others. Playlists not started before ctx ends are reported as skipped.
func (e *ReorderEngine) ReconcileAll(ctx context.Context, playlists []models.Playlist, progress chan<- ProgressUpdate) *BatchResult {
	batch := &BatchResult{Results: make([]*ReconcileResult, len(playlists))}

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	for i, pl := range playlists {
		if ctx.Err() != nil {
			batch.Results[i] = &ReconcileResult{Playlist: pl, Status: models.RunSkipped, Err: context.Cause(ctx)}
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				batch.Results[i] = &ReconcileResult{Playlist: pl, Status: models.RunSkipped, Err: context.Cause(ctx)}
				return nil
			}
			res, err := e.Reconcile(ctx, pl, progress)
			if err != nil && !errors.Is(err, shared.ErrIncompleteSnapshot) {
				e.opts.Logger.Error("playlist failed", "playlist", pl.Name, "error", err)
			}
			batch.Results[i] = res
			return nil
		})
	}

	_ = g.Wait()
	batch.tally()
	return batch
}
