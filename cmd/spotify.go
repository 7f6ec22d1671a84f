package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotdown/internal/server"
	"github.com/desertthunder/spotdown/internal/services"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	spotify, err := services.NewSpotifyService(r.config.Credentials.Spotify, r.config.Catalog)
	if err != nil {
		return err
	}
	spotify.SetHTTPClient(r.httpClient)

	token, err := r.doOAuth(ctx, spotify)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)

	if err := spotify.OAuthenticate(ctx, token); err != nil {
		return err
	}
	if user, err := spotify.UserProfile(ctx); err != nil {
		r.logger.Warn("could not read user profile", "error", err)
	} else {
		r.writePlain("✓ Signed in as %s\n", orID(user.DisplayName, user.ID))
	}

	r.writePlain("\nYou can now use: spotdown download liked\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callback := server.NewCallbackServer(addr, oauthSrv.GetOAuthConfig(), state, r.logger)
	callback.SetHTTPClient(r.httpClient)
	if err := callback.Start(); err != nil {
		return nil, err
	}
	r.logger.Infof("started OAuth callback server at %v", callback.Addr())

	authURL := oauthSrv.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)
	return callback.Wait(ctx, authTimeout)
}

func orID(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
