package services

import (
	"sync"

	"github.com/desertthunder/chronolist/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Scopes are the OAuth scopes needed to read and rewrite the user's playlists.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// NewOAuthConfig builds the authorization-code configuration for Spotify from app credentials.
func NewOAuthConfig(creds shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// TokenFromConfig returns the saved token, or nil if none has been stored.
func TokenFromConfig(creds shared.SpotifyConfig) *oauth2.Token {
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}
}

// refreshableTokenSource wraps a token source and invokes callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.notify(token)
	}
	return token, nil
}

// notify runs the callback, containing any panic so a failed save never breaks the request.
func (s *refreshableTokenSource) notify(token *oauth2.Token) {
	defer func() { _ = recover() }()
	s.callback(token)
}
