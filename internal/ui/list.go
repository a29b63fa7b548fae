package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/chronolist/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	excluded bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.excluded {
		desc = fmt.Sprintf("%s • excluded", desc)
	}
	return desc
}

// trackItem wraps [models.TrackRecord] to implement [list.Item].
type trackItem struct {
	position int
	track    models.TrackRecord
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.track.Name) }
func (i trackItem) Description() string {
	return fmt.Sprintf("%s • %s", i.track.ReleaseDate, i.track.Album)
}
