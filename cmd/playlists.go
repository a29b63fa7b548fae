package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/urfave/cli/v3"
)

// playlistEntry is a playlist as listed by the playlists command.
type playlistEntry struct {
	models.Playlist
	Excluded bool `json:"excluded"`
}

// Playlists lists the playlists owned by the current user, marking the ones excluded from reorder runs.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	var playlists []models.Playlist
	err = r.withSpinner(ctx, "Fetching playlists...", func(ctx context.Context) error {
		owned, err := r.ownedPlaylists(ctx, svc)
		playlists = owned
		return err
	})
	if err != nil {
		return err
	}

	entries := make([]playlistEntry, len(playlists))
	for i, p := range playlists {
		entries[i] = playlistEntry{Playlist: p, Excluded: r.config.Reorder.IsExcluded(p.Name)}
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(entries))
	for i, e := range entries {
		if e.Excluded {
			r.writePlain("%d. %s (excluded)\n", i+1, e.Name)
		} else {
			r.writePlain("%d. %s\n", i+1, e.Name)
		}
		r.writePlain("   ID: %s\n", e.ID)
		r.writePlain("   Tracks: %d\n", e.TrackCount)
		r.writePlain("\n")
	}
	return nil
}

// ownedPlaylists resolves the current user and returns every playlist they own.
func (r *Runner) ownedPlaylists(ctx context.Context, svc services.PlaylistService) ([]models.Playlist, error) {
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("listing playlists", "owner", user)
	return svc.Playlists(ctx, user)
}

// findPlaylist looks id up among the user's playlists.
//
// When owned is false an unknown id still resolves, named after itself, so read-only commands work on followed playlists.
func (r *Runner) findPlaylist(ctx context.Context, svc services.PlaylistService, id string, owned bool) (models.Playlist, error) {
	playlists, err := r.ownedPlaylists(ctx, svc)
	if err != nil {
		return models.Playlist{}, err
	}

	for _, p := range playlists {
		if p.ID == id {
			return p, nil
		}
	}

	if owned {
		return models.Playlist{}, fmt.Errorf("%w: %s is not owned by the current user", shared.ErrPlaylistNotFound, id)
	}
	return models.Playlist{ID: id, Name: id}, nil
}
