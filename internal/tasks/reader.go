package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
)

// maxPages bounds pagination against a service that keeps returning a next cursor.
const maxPages = 10_000

// SnapshotReader builds chronologically ordered snapshots of playlists.
type SnapshotReader struct {
	service services.PlaylistService
	logger  *log.Logger
}

func NewSnapshotReader(svc services.PlaylistService, logger *log.Logger) *SnapshotReader {
	return &SnapshotReader{service: svc, logger: logger}
}

// Read pages through every item of playlist and returns its playable tracks sorted by release date, then album.
//
// Retrieval failures degrade to an empty, incomplete snapshot. The returned error wraps
// [shared.ErrIncompleteSnapshot] and the snapshot's Err holds the underlying cause.
func (r *SnapshotReader) Read(ctx context.Context, playlist models.Playlist) (*models.Snapshot, error) {
	snap := &models.Snapshot{Playlist: playlist, Tracks: []models.TrackRecord{}}

	var raw []services.RawItem
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return r.incomplete(snap, fmt.Errorf("pagination did not terminate after %d pages", maxPages))
		}

		res, err := r.service.PlaylistItems(ctx, playlist.ID, cursor)
		if err != nil {
			return r.incomplete(snap, err)
		}
		raw = append(raw, res.Items...)

		if res.Next == "" {
			break
		}
		if res.Next == cursor {
			return r.incomplete(snap, fmt.Errorf("cursor %q repeated", cursor))
		}
		cursor = res.Next
	}

	snap.Tracks, snap.Dropped = r.project(raw)
	models.SortTracks(snap.Tracks)
	snap.Complete = true

	if snap.Dropped.Total() > 0 {
		r.logger.Debug("dropped items", "playlist", playlist.Name,
			"unavailable", snap.Dropped.Unavailable,
			"missing_id", snap.Dropped.MissingID,
			"invalid_date", snap.Dropped.InvalidDate)
	}
	return snap, nil
}

func (r *SnapshotReader) incomplete(snap *models.Snapshot, err error) (*models.Snapshot, error) {
	r.logger.Error("failed to read playlist", "playlist", snap.Playlist.Name, "error", err)
	snap.Tracks = []models.TrackRecord{}
	snap.Complete = false
	snap.Err = err
	return snap, fmt.Errorf("%w: %s: %v", shared.ErrIncompleteSnapshot, snap.Playlist.Name, err)
}

// project converts raw items to track records, discarding unavailable items and invalid rows.
func (r *SnapshotReader) project(items []services.RawItem) ([]models.TrackRecord, models.DropCounts) {
	var dropped models.DropCounts
	tracks := make([]models.TrackRecord, 0, len(items))

	for _, item := range items {
		t := item.Track
		switch {
		case t == nil:
			dropped.Unavailable++
			continue
		case t.ID == "":
			dropped.MissingID++
			continue
		}

		date, err := models.ParseReleaseDate(t.AlbumReleaseDate)
		if err != nil {
			dropped.InvalidDate++
			r.logger.Debug("skipping track", "id", t.ID, "name", t.Name, "error", err)
			continue
		}

		tracks = append(tracks, models.TrackRecord{
			ID:          t.ID,
			Name:        t.Name,
			Album:       t.AlbumName,
			ReleaseDate: date,
		})
	}
	return tracks, dropped
}
