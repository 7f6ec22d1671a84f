package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Catalog is the set of Spotify Web API reads the [Resolver] depends on.
type Catalog interface {
	// Album reads an album and its first page of tracks with app credentials.
	Album(ctx context.Context, albumID string) (*SpotifyAlbum, error)

	// Track reads a single track with app credentials.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Playlist reads a playlist and its first page of items with the user token.
	Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error)

	// SavedTracks reads one page of the user's liked songs.
	SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error)
}

// OAuthService is implemented by providers that support the authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
