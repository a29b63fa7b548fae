// package services defines the PlaylistService boundary to the remote music service
package services

import (
	"context"

	"github.com/desertthunder/chronolist/internal/models"
)

// MaxRemoveBatch is the most track ids a single removal call accepts.
const MaxRemoveBatch = 100

// PlaylistService is the set of remote playlist operations the reorder pipeline depends on.
type PlaylistService interface {
	// CurrentUser returns the authenticated user's id.
	CurrentUser(ctx context.Context) (string, error)

	// Playlists returns every playlist the current user follows or owns.
	// When owner is non-empty only playlists owned by that user are returned.
	Playlists(ctx context.Context, owner string) ([]models.Playlist, error)

	// PlaylistItems returns one page of items starting at cursor ("" for the first page).
	// [ItemPage.Next] is empty on the last page.
	PlaylistItems(ctx context.Context, playlistID, cursor string) (*ItemPage, error)

	// RemoveItems removes every occurrence of each id. At most [MaxRemoveBatch] ids per call.
	RemoveItems(ctx context.Context, playlistID string, trackIDs []string) error

	// AppendItem appends a single track to the end of the playlist.
	AppendItem(ctx context.Context, playlistID, trackID string) error
}

// ItemPage is one page of playlist items.
type ItemPage struct {
	Items []RawItem
	Next  string
	Total int
}

// RawItem is a playlist entry as returned by the service. Track is nil when the item or its track is unavailable.
type RawItem struct {
	Track *RawTrack
}

// RawTrack holds the unparsed track fields needed to build a [models.TrackRecord].
type RawTrack struct {
	ID               string
	Name             string
	AlbumName        string
	AlbumReleaseDate string
}
