package tasks

import (
	"fmt"

	"github.com/desertthunder/chronolist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Playlist string // Playlist name the update refers to
	Phase    Phase  // Operation phase
	Step     int    // Current step number within phase
	Total    int    // Total steps in this phase
	Message  string // Human-readable message for display
	Data     any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadSnapshot Phase = iota
	WriteBackup
	ClearPlaylist
	AppendTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case ReadSnapshot:
		return "read_snapshot"
	case WriteBackup:
		return "write_backup"
	case ClearPlaylist:
		return "clear_playlist"
	case AppendTracks:
		return "append_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func readingUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Playlist: name,
		Phase:    ReadSnapshot,
		Step:     0,
		Total:    1,
		Message:  fmt.Sprintf("Reading %s...", name),
	}
}

func snapshotUpdate(name string, snap *models.Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Playlist: name,
		Phase:    ReadSnapshot,
		Step:     1,
		Total:    1,
		Message:  fmt.Sprintf("Found %d tracks in %s (%d dropped)", snap.Len(), name, snap.Dropped.Total()),
		Data:     snap,
	}
}

func backupUpdate(name, path string) ProgressUpdate {
	return ProgressUpdate{
		Playlist: name,
		Phase:    WriteBackup,
		Step:     1,
		Total:    1,
		Message:  fmt.Sprintf("Backup written to %s", path),
		Data:     path,
	}
}

func clearUpdate(name string, step, total, size int, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Removed batch of %d tracks", step, total, size)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ Failed to remove batch of %d tracks: %v", step, total, size, err)
	}
	return ProgressUpdate{
		Playlist: name,
		Phase:    ClearPlaylist,
		Step:     step,
		Total:    total,
		Message:  msg,
	}
}

func appendUpdate(name string, step, total int, trackID string, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Added %s", step, total, trackID)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ Failed to add %s: %v", step, total, trackID, err)
	}
	return ProgressUpdate{
		Playlist: name,
		Phase:    AppendTracks,
		Step:     step,
		Total:    total,
		Message:  msg,
	}
}

func finishedUpdate(result *ReconcileResult) ProgressUpdate {
	return ProgressUpdate{
		Playlist: result.Playlist.Name,
		Phase:    Finished,
		Step:     1,
		Total:    1,
		Message:  fmt.Sprintf("%s: %s", result.Playlist.Name, result.Summary()),
		Data:     result,
	}
}
