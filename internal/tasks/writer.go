package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/services"
)

// WriteResult summarizes a sequential re-add.
type WriteResult struct {
	Attempted   int
	Added       int
	Failed      int
	FailedIDs   []string
	Interrupted bool // the context ended before every id was attempted
}

// SequentialWriter appends tracks one call at a time, pacing between successes.
type SequentialWriter struct {
	service services.PlaylistService
	pacer   Pacer
	logger  *log.Logger
}

func NewSequentialWriter(svc services.PlaylistService, pacer Pacer, logger *log.Logger) *SequentialWriter {
	if pacer == nil {
		pacer = FixedDelay{Delay: DefaultDelay}
	}
	return &SequentialWriter{service: svc, pacer: pacer, logger: logger}
}

// Write appends trackIDs in order. A failed append is logged and skipped; nothing is rolled back.
func (w *SequentialWriter) Write(ctx context.Context, playlistID string, trackIDs []string, progress chan<- ProgressUpdate) WriteResult {
	return w.write(ctx, playlistID, playlistID, trackIDs, progress)
}

func (w *SequentialWriter) write(ctx context.Context, playlistID, name string, trackIDs []string, progress chan<- ProgressUpdate) WriteResult {
	var result WriteResult
	total := len(trackIDs)
	if total == 0 {
		w.logger.Info("no tracks to add", "playlist", name)
		return result
	}

	w.logger.Info("adding tracks one by one", "playlist", name, "tracks", total)
	for i, id := range trackIDs {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		result.Attempted++
		err := w.service.AppendItem(ctx, playlistID, id)
		sendProgress(progress, appendUpdate(name, i+1, total, id, err))

		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			w.logger.Error("failed to add track", "playlist", name, "track", id, "error", err)
			continue
		}

		result.Added++
		if err := w.pacer.Wait(ctx); err != nil {
			result.Interrupted = i < total-1
			break
		}
	}

	if result.Interrupted {
		w.logger.Warn("interrupted while adding tracks", "playlist", name, "added", result.Added, "remaining", total-result.Attempted)
	}
	return result
}
