// package tasks implements the playlist reorder pipeline.
//
// The core abstraction is ReorderEngine, which reads, backs up, clears, and re-adds each playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/samber/lo"
)

// BackupWriter persists a snapshot before the playlist is cleared and returns where it was written.
type BackupWriter interface {
	Write(snapshot *models.Snapshot, playlistName string) (string, error)
}

// RunRecorder stores the outcome of each playlist run.
type RunRecorder interface {
	Create(run *models.RunRecord) error
}

// ReconcileResult is the outcome of reconciling a single playlist.
type ReconcileResult struct {
	RunID       string
	Playlist    models.Playlist
	Status      models.RunStatus
	Snapshot    *models.Snapshot
	BackupPath  string
	Clear       ClearResult
	Write       WriteResult
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Summary returns a one-line description of the outcome.
func (r *ReconcileResult) Summary() string {
	switch r.Status {
	case models.RunCompleted:
		s := fmt.Sprintf("reordered %d/%d tracks", r.Write.Added, len(r.Snapshot.Tracks))
		if r.Write.Failed > 0 || r.Clear.FailedBatches > 0 {
			s += fmt.Sprintf(" (%d add failures, %d failed removal batches)", r.Write.Failed, r.Clear.FailedBatches)
		}
		return s
	case models.RunDryRun:
		return fmt.Sprintf("dry run, %d tracks backed up to %s", len(r.Snapshot.Tracks), r.BackupPath)
	case models.RunSkipped:
		if r.Err != nil {
			return fmt.Sprintf("skipped: %v", r.Err)
		}
		return "skipped: playlist is empty"
	default:
		return fmt.Sprintf("failed: %v", r.Err)
	}
}

// Record converts the result to a run ledger row.
func (r *ReconcileResult) Record() *models.RunRecord {
	rec := &models.RunRecord{
		RunID:         r.RunID,
		PlaylistID:    r.Playlist.ID,
		PlaylistName:  r.Playlist.Name,
		Status:        r.Status,
		TracksAdded:   r.Write.Added,
		TracksFailed:  r.Write.Failed,
		BatchesFailed: r.Clear.FailedBatches,
		BackupPath:    r.BackupPath,
		StartedAt:     r.StartedAt,
	}
	if r.Snapshot != nil {
		rec.TracksTotal = len(r.Snapshot.Tracks)
		rec.TracksDropped = r.Snapshot.Dropped.Total()
	}
	if r.Err != nil {
		rec.ErrorMessage = r.Err.Error()
	}
	if !r.CompletedAt.IsZero() {
		completed := r.CompletedAt
		rec.CompletedAt = &completed
	}
	return rec
}

// BatchResult aggregates the outcome of [ReorderEngine.ReconcileAll].
type BatchResult struct {
	Results   []*ReconcileResult
	Completed int
	Skipped   int
	Failed    int
	DryRun    int
}

func (b *BatchResult) tally() {
	for _, r := range b.Results {
		if r == nil {
			continue
		}
		switch r.Status {
		case models.RunCompleted:
			b.Completed++
		case models.RunSkipped:
			b.Skipped++
		case models.RunDryRun:
			b.DryRun++
		default:
			b.Failed++
		}
	}
}

// SelectPlaylists drops excluded names and, when only is non-empty, keeps just the named playlists.
func SelectPlaylists(playlists []models.Playlist, exclude, only []string) []models.Playlist {
	return lo.Filter(playlists, func(p models.Playlist, _ int) bool {
		if lo.Contains(exclude, p.Name) {
			return false
		}
		if len(only) == 0 {
			return true
		}
		return lo.ContainsBy(only, func(name string) bool {
			return strings.EqualFold(name, p.Name) || name == p.ID
		})
	})
}

// keyedMutex serializes work per key. Entries are dropped once no holder or waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		defer k.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
	}
}

// size reports how many keys currently hold an entry.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
