package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/chronolist/internal/server"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var openBrowser = shared.OpenBrowser

// AuthLogin runs the authorization code flow and saves the resulting tokens to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	token, err := r.doOAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: chronolist playlists\n")
	return nil
}

// AuthStatus reports whether a token is saved and, if so, which account it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil && services.TokenFromConfig(r.config.Credentials.Spotify) == nil {
		return r.writePlain("✗ Not authenticated\nRun 'chronolist auth' to authorize\n")
	}

	svc, err := r.playlistService(ctx)
	if err != nil {
		return err
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Authenticated as %s\n", user)
	if expiry := r.config.Credentials.Spotify.Expiry; !expiry.IsZero() {
		r.writePlain("Token expires: %s\n", expiry.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (r *Runner) doOAuth(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthConfig := services.NewOAuthConfig(r.config.Credentials.Spotify)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	srv, err := server.NewCallbackServer(r.callbackAddr(), router, r.logger)
	if err != nil {
		return nil, err
	}
	srv.Start()

	authURL := oauthConfig.AuthCodeURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", server.DefaultAuthTimeout)
	return srv.Await(ctx, oauthHandler, server.DefaultAuthTimeout)
}

// callbackAddr is the host:port of the redirect URI, falling back to the server section of the config.
func (r *Runner) callbackAddr() string {
	if u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI); err == nil && u.Host != "" {
		if u.Port() != "" {
			return u.Host
		}
		return fmt.Sprintf("%s:%d", u.Hostname(), r.config.Server.Port)
	}
	return fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
}
