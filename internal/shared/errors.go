package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrRunNotFound        = fmt.Errorf("run not found")
	ErrBatchTooLarge      = fmt.Errorf("batch exceeds per-call limit")

	// Reorder errors
	ErrIncompleteSnapshot = fmt.Errorf("playlist snapshot incomplete")
	ErrBackupFailed       = fmt.Errorf("backup failed")
	ErrInvalidReleaseDate = fmt.Errorf("invalid release date")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
