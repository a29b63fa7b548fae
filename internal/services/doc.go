// Package services defines the [PlaylistService] boundary and implements it for Spotify.
//
// # PlaylistService
//
// The reorder pipeline only needs five remote operations: identify the user, list playlists,
// page through a playlist's items, remove tracks in batches, and append a single track.
// Keeping the interface this small lets tests substitute a fault-injectable fake.
//
// # Spotify Implementation
//
// [SpotifyService] wraps [github.com/zmb3/spotify/v2] with an [oauth2] HTTP client.
// Expired access tokens are refreshed automatically; [WithTokenRefresh] lets the caller persist
// the new token. Requests that hit the rate limit are retried by the client.
//
// Item pages are addressed by an opaque cursor (the item offset). SDK playlist items are
// converted to [RawItem] values here; null items, null tracks and podcast episodes all become
// a RawItem with a nil Track.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no saved token, or the API rejected it
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrPlaylistNotFound] : the API answered 404
//   - [shared.ErrBatchTooLarge] : more than [MaxRemoveBatch] ids passed to RemoveItems
package services
