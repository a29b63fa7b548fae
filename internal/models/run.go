package models

import (
	"fmt"
	"time"
)

var _ Model = (*RunRecord)(nil)

// RunStatus is the outcome of reconciling one playlist.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
	RunDryRun    RunStatus = "dry_run"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunCompleted, RunSkipped, RunFailed, RunDryRun:
		return true
	}
	return false
}

// RunRecord is one row of the run ledger.
type RunRecord struct {
	RunID         string     `json:"id"`
	PlaylistID    string     `json:"playlist_id"`
	PlaylistName  string     `json:"playlist_name"`
	Status        RunStatus  `json:"status"`
	TracksTotal   int        `json:"tracks_total"`
	TracksAdded   int        `json:"tracks_added"`
	TracksFailed  int        `json:"tracks_failed"`
	TracksDropped int        `json:"tracks_dropped"`
	BatchesFailed int        `json:"batches_failed"`
	BackupPath    string     `json:"backup_path,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

var _ Model = (*RunRecord)(nil)

func (r *RunRecord) ID() string           { return r.RunID }
func (r *RunRecord) CreatedAt() time.Time { return r.StartedAt }

// Validate checks required fields before persistence.
func (r *RunRecord) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown run status %q", r.Status)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	return nil
}

// Duration returns how long the run took, or zero if it has not completed.
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
