package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/shared"
)

const runColumns = `id, playlist_id, playlist_name, status, tracks_total, tracks_added, tracks_failed,
	tracks_dropped, batches_failed, backup_path, error_message, started_at, completed_at`

// DefaultListLimit caps List queries when no positive limit is given.
const DefaultListLimit = 20

// RunRepository stores [models.RunRecord] rows in the reorder_runs table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run, generating its ID when empty
func (r *RunRepository) Create(run *models.RunRecord) error {
	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO reorder_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.RunID,
		run.PlaylistID,
		run.PlaylistName,
		string(run.Status),
		run.TracksTotal,
		run.TracksAdded,
		run.TracksFailed,
		run.TracksDropped,
		run.BatchesFailed,
		nullString(run.BackupPath),
		nullString(run.ErrorMessage),
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM reorder_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// List returns the most recent runs, newest first
func (r *RunRepository) List(limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM reorder_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`
	return r.query(query, listLimit(limit))
}

// ListByPlaylist returns the most recent runs for one playlist, newest first
func (r *RunRepository) ListByPlaylist(playlistID string, limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM reorder_runs WHERE playlist_id = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`
	return r.query(query, playlistID, listLimit(limit))
}

// Delete removes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM reorder_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// Prune deletes runs started before cutoff and returns how many were removed
func (r *RunRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM reorder_runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func (r *RunRepository) query(query string, args ...any) ([]*models.RunRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.RunRecord, error) {
	var (
		run          models.RunRecord
		status       string
		backupPath   sql.NullString
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := s.Scan(
		&run.RunID,
		&run.PlaylistID,
		&run.PlaylistName,
		&status,
		&run.TracksTotal,
		&run.TracksAdded,
		&run.TracksFailed,
		&run.TracksDropped,
		&run.BatchesFailed,
		&backupPath,
		&errorMessage,
		&run.StartedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = models.RunStatus(status)
	run.BackupPath = backupPath.String
	run.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
