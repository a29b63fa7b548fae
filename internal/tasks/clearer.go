package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/samber/lo"
)

// ClearResult summarizes a bulk removal.
type ClearResult struct {
	Ok            bool // false only when there was nothing to remove
	Removed       int  // distinct ids submitted for removal
	Batches       int
	FailedBatches int
}

// BulkClearer removes tracks from a playlist in batches of at most [services.MaxRemoveBatch].
type BulkClearer struct {
	service services.PlaylistService
	logger  *log.Logger
}

func NewBulkClearer(svc services.PlaylistService, logger *log.Logger) *BulkClearer {
	return &BulkClearer{service: svc, logger: logger}
}

// Clear removes every occurrence of trackIDs from the playlist.
//
// Ids are de-duplicated before batching. A failed batch is logged and the remaining batches still run.
func (c *BulkClearer) Clear(ctx context.Context, playlistID string, trackIDs []string, progress chan<- ProgressUpdate) ClearResult {
	return c.clear(ctx, playlistID, playlistID, trackIDs, progress)
}

func (c *BulkClearer) clear(ctx context.Context, playlistID, name string, trackIDs []string, progress chan<- ProgressUpdate) ClearResult {
	if len(trackIDs) == 0 {
		c.logger.Info("no tracks to remove", "playlist", name)
		return ClearResult{}
	}

	unique := lo.Uniq(trackIDs)
	batches := lo.Chunk(unique, services.MaxRemoveBatch)
	result := ClearResult{Ok: true, Removed: len(unique), Batches: len(batches)}

	c.logger.Info("removing tracks", "playlist", name, "tracks", len(unique), "batches", len(batches))
	for i, batch := range batches {
		err := c.service.RemoveItems(ctx, playlistID, batch)
		if err != nil {
			result.FailedBatches++
			c.logger.Error("failed to remove batch", "playlist", name, "batch", i+1, "size", len(batch), "error", err)
		}
		sendProgress(progress, clearUpdate(name, i+1, len(batches), len(batch), err))
	}
	return result
}
