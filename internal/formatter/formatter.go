// package formatter renders playlist snapshots as CSV backups, Markdown, plain text and JSON.
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/shared"
)

// BackupTimeLayout names backup files so they sort by creation time.
const BackupTimeLayout = "20060102-1504-05"

// Format selects an exporter for [Export].
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// CSVHeader is the column layout shared by backups and CSV exports.
var CSVHeader = []string{"song_id", "song_name", "album_name", "album_release_date"}

// ExportToCSV converts a snapshot to CSV with columns song_id, song_name, album_name, album_release_date
func ExportToCSV(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range snap.Tracks {
		record := []string{track.ID, track.Name, track.Album, track.ReleaseDate.String()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a snapshot to a Markdown document with a numbered track list
func ExportToMarkdown(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", snap.Playlist.Name)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", snap.Len())
	if n := snap.Dropped.Total(); n > 0 {
		fmt.Fprintf(&buf, "**Dropped**: %d\n", n)
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range snap.Tracks {
		fmt.Fprintf(&buf, "%d. %s (%s) [%s]\n", i+1, track.Name, track.Album, track.ReleaseDate)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a snapshot to plain text, one track per line in target order
func ExportToText(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", snap.Playlist.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n", snap.Len())
	if d := snap.Dropped; d.Total() > 0 {
		fmt.Fprintf(&buf, "Dropped: %d (unavailable %d, missing id %d, invalid date %d)\n",
			d.Total(), d.Unavailable, d.MissingID, d.InvalidDate)
	}
	buf.WriteString("\n")

	width := len(fmt.Sprint(snap.Len()))
	for i, track := range snap.Tracks {
		fmt.Fprintf(&buf, "%*d. %s  %s - %s\n", width, i+1, track.ReleaseDate, track.Album, track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the snapshot, tracks included.
func ExportToJSON(snap *models.Snapshot) ([]byte, error) {
	return shared.MarshalJSON(snap, true)
}

// Export renders snap in the requested format.
func Export(snap *models.Snapshot, format Format) ([]byte, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return ExportToText(snap)
	case FormatMarkdown, "md":
		return ExportToMarkdown(snap)
	case FormatCSV:
		return ExportToCSV(snap)
	case FormatJSON:
		return ExportToJSON(snap)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders snap and writes it to path.
//
// Defaults to {playlist.ID}_sorted.{ext} as the filename.
func WriteExport(snap *models.Snapshot, format Format, path string) (string, error) {
	data, err := Export(snap, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("%s_sorted.%s", snap.Playlist.ID, extension(format))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return path, nil
}

func extension(format Format) string {
	switch format {
	case FormatMarkdown, "md":
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// BackupWriter writes snapshot CSV backups into Dir.
type BackupWriter struct {
	Dir string
	Now func() time.Time
}

// NewBackupWriter returns a writer for dir, defaulting to ./Backups.
func NewBackupWriter(dir string) *BackupWriter {
	if dir == "" {
		dir = "Backups"
	}
	return &BackupWriter{Dir: dir, Now: time.Now}
}

// BackupFilename returns "<timestamp>_<sanitized name>.csv".
func BackupFilename(playlistName string, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", at.Format(BackupTimeLayout), shared.SanitizeFilename(playlistName))
}

// Write creates the backup directory if needed and writes snap as CSV.
//
// The returned path is the file that was written.
func (b *BackupWriter) Write(snap *models.Snapshot, playlistName string) (string, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := ExportToCSV(snap)
	if err != nil {
		return "", err
	}

	f, err := createBackupFile(filepath.Join(b.Dir, BackupFilename(playlistName, now())))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return f.Name(), nil
}

// maxBackupSuffix bounds the "_2", "_3", ... suffixes tried when a backup name is taken.
const maxBackupSuffix = 100

// createBackupFile creates path exclusively, appending a numeric suffix when an earlier backup already holds the name.
func createBackupFile(path string) (*os.File, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	candidate := path
	for n := 2; n <= maxBackupSuffix; n++ {
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create backup file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	return nil, fmt.Errorf("failed to create backup file: %s: too many backups with this name", path)
}
