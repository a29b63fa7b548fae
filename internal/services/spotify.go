package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	itemPageSize     = 100
	playlistPageSize = 50
)

// spotifyClient is the subset of [spotify.Client] used by [SpotifyService].
type spotifyClient interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	RemoveTracksFromPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
}

// SpotifyService implements [PlaylistService] over the Spotify Web API.
type SpotifyService struct {
	client spotifyClient
	tokens oauth2.TokenSource
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	clientOpts []spotify.ClientOption
	onRefresh  func(*oauth2.Token)
}

// WithBaseURL points the client at an alternative API root. The URL must end with a slash.
func WithBaseURL(url string) SpotifyOption {
	return func(o *spotifyOptions) {
		o.clientOpts = append(o.clientOpts, spotify.WithBaseURL(url))
	}
}

// WithTokenRefresh registers a callback invoked whenever the access token is refreshed.
func WithTokenRefresh(fn func(*oauth2.Token)) SpotifyOption {
	return func(o *spotifyOptions) {
		o.onRefresh = fn
	}
}

// NewSpotifyService creates an authenticated service from a saved token.
//
// The token is refreshed automatically through config; rate-limited requests are retried.
func NewSpotifyService(ctx context.Context, config *oauth2.Config, token *oauth2.Token, opts ...SpotifyOption) (*SpotifyService, error) {
	if config == nil || config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: run `chronolist auth` first", shared.ErrNotAuthenticated)
	}

	var o spotifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	tokens := &refreshableTokenSource{
		source:   config.TokenSource(ctx, token),
		callback: o.onRefresh,
		last:     token.AccessToken,
	}
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, tokens))

	clientOpts := append([]spotify.ClientOption{spotify.WithRetry(true)}, o.clientOpts...)
	return &SpotifyService{
		client: spotify.New(httpClient, clientOpts...),
		tokens: tokens,
	}, nil
}

// Token returns the current (possibly refreshed) OAuth token.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.tokens == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.tokens.Token()
}

// CurrentUser returns the authenticated user's id.
func (s *SpotifyService) CurrentUser(ctx context.Context) (string, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", wrapAPIError(err, "current user")
	}
	return user.ID, nil
}

// Playlists pages through the current user's playlists, keeping only those owned by owner when it is set.
func (s *SpotifyService) Playlists(ctx context.Context, owner string) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, wrapAPIError(err, "list playlists")
		}

		for _, sp := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:         sp.ID.String(),
				Name:       sp.Name,
				Owner:      sp.Owner.ID,
				TrackCount: int(sp.Tracks.Total),
			})
		}

		if page.Next == "" || len(page.Playlists) == 0 {
			break
		}
		offset += len(page.Playlists)
	}

	if owner == "" {
		return playlists, nil
	}
	return lo.Filter(playlists, func(p models.Playlist, _ int) bool {
		return p.Owner == owner
	}), nil
}

// PlaylistItems fetches one page of up to 100 items. The cursor is the item offset.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID, cursor string) (*ItemPage, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: cursor %q", shared.ErrInvalidArgument, cursor)
		}
		offset = n
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(itemPageSize), spotify.Offset(offset))
	if err != nil {
		return nil, wrapAPIError(err, "playlist items")
	}

	items := make([]RawItem, len(page.Items))
	for i, item := range page.Items {
		items[i] = toRawItem(item)
	}

	result := &ItemPage{Items: items, Total: int(page.Total)}
	if page.Next != "" && len(page.Items) > 0 {
		result.Next = strconv.Itoa(offset + len(page.Items))
	}
	return result, nil
}

// RemoveItems removes every occurrence of the given tracks.
func (s *SpotifyService) RemoveItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > MaxRemoveBatch {
		return fmt.Errorf("%w: %d ids (max %d)", shared.ErrBatchTooLarge, len(trackIDs), MaxRemoveBatch)
	}
	if len(trackIDs) == 0 {
		return nil
	}

	if _, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...); err != nil {
		return wrapAPIError(err, "remove tracks")
	}
	return nil
}

// AppendItem appends a single track to the end of the playlist.
func (s *SpotifyService) AppendItem(ctx context.Context, playlistID, trackID string) error {
	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID)); err != nil {
		return wrapAPIError(err, "add track")
	}
	return nil
}

func toRawItem(item spotify.PlaylistItem) RawItem {
	track := item.Track.Track
	if track == nil {
		return RawItem{}
	}
	return RawItem{Track: &RawTrack{
		ID:               track.ID.String(),
		Name:             track.Name,
		AlbumName:        track.Album.Name,
		AlbumReleaseDate: track.Album.ReleaseDate,
	}}
}

func toIDs(ids []string) []spotify.ID {
	return lo.Map(ids, func(id string, _ int) spotify.ID {
		return spotify.ID(id)
	})
}

// wrapAPIError maps Spotify API errors onto the shared sentinels.
func wrapAPIError(err error, op string) error {
	var se spotify.Error
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", shared.ErrPlaylistNotFound, op, se.Message)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", shared.ErrNotAuthenticated, op, se.Message)
		}
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}
