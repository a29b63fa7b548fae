package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Model defines the base interface for persistent models in the run ledger.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Playlist represents a playlist owned by the current user.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	TrackCount int    `json:"track_count"`
}

// TrackRecord is the projection of a playlist item used for ordering and backups.
type TrackRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Album       string      `json:"album"`
	ReleaseDate ReleaseDate `json:"release_date"`
}

// DropCounts tallies playlist items the reader discarded, by reason.
type DropCounts struct {
	Unavailable int `json:"unavailable"`  // null item or null track
	MissingID   int `json:"missing_id"`   // track without an identifier
	InvalidDate int `json:"invalid_date"` // album release date could not be parsed
}

// Total returns the number of discarded items.
func (d DropCounts) Total() int {
	return d.Unavailable + d.MissingID + d.InvalidDate
}

// Snapshot is the ordered contents of a playlist at read time.
//
// Complete is false when retrieval failed part-way; Tracks is then empty and Err holds the cause.
type Snapshot struct {
	Playlist Playlist      `json:"playlist"`
	Tracks   []TrackRecord `json:"tracks"`
	Complete bool          `json:"complete"`
	Err      error         `json:"-"`
	Dropped  DropCounts    `json:"dropped"`
}

// Len returns the number of tracks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Tracks)
}

// IDs returns track ids in snapshot order, duplicates included.
func (s *Snapshot) IDs() []string {
	ids := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// UniqueIDs returns track ids in first-occurrence order with duplicates removed.
func (s *Snapshot) UniqueIDs() []string {
	seen := make(map[string]struct{}, len(s.Tracks))
	ids := make([]string, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	return ids
}

// SortTracks stable-sorts tracks by release date ascending, then album name ascending.
func SortTracks(tracks []TrackRecord) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Less(tracks[j])
	})
}

// Less reports whether t sorts before o.
func (t TrackRecord) Less(o TrackRecord) bool {
	if !t.ReleaseDate.Equal(o.ReleaseDate.Time) {
		return t.ReleaseDate.Before(o.ReleaseDate.Time)
	}
	return strings.Compare(t.Album, o.Album) < 0
}

// IsSorted reports whether tracks are already in target order.
func IsSorted(tracks []TrackRecord) bool {
	return sort.SliceIsSorted(tracks, func(i, j int) bool {
		return tracks[i].Less(tracks[j])
	})
}

// String returns a one-line description of the track.
func (t TrackRecord) String() string {
	return fmt.Sprintf("%s  %s - %s", t.ReleaseDate, t.Album, t.Name)
}
