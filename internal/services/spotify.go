// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotdown/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyImage represents an image resource. Spotify lists images widest first.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track. Album is empty for tracks nested in an album response.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbumRef `json:"album"`
	TrackNumber int             `json:"track_number"`
	DiscNumber  int             `json:"disc_number"`
	DurationMS  int             `json:"duration_ms"`
}

// SpotifyAlbumRef is the simplified album embedded in a track.
type SpotifyAlbumRef struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Images  []SpotifyImage  `json:"images"`
}

type albumTracks struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
	Next  *string        `json:"next"`
}

// SpotifyAlbum represents a full Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	Tracks      albumTracks     `json:"tracks"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
	Next  *string                `json:"next"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil for removed tracks and local files the API cannot describe.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyService implements [Catalog] and [OAuthService] for the Spotify Web API.
//
// Public reads go through a client credentials client; private reads go through the user's OAuth2 client.
type SpotifyService struct {
	config     *oauth2.Config
	app        *clientcredentials.Config
	baseURL    string
	httpClient *http.Client
	appClient  *http.Client
	userClient *http.Client
	token      *oauth2.Token
	limiter    *rate.Limiter

	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service from the configured credentials and catalog endpoints.
func NewSpotifyService(creds shared.SpotifyConfig, catalog shared.CatalogConfig) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	authURL := orDefault(catalog.AuthURL, spotifyAuthURL)
	tokenURL := orDefault(catalog.TokenURL, spotifyTokenURL)

	rps := rate.Inf
	if catalog.RequestsPerSecond > 0 {
		rps = rate.Limit(catalog.RequestsPerSecond)
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  orDefault(creds.RedirectURI, "http://localhost:8888/callback"),
			Scopes:       []string{"playlist-read-private", "user-library-read"},
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		app: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
		},
		baseURL: strings.TrimSuffix(orDefault(catalog.APIBaseURL, spotifyBaseURL), "/"),
		limiter: rate.NewLimiter(rps, 1),
	}
	s.SetHTTPClient(&http.Client{Timeout: 30 * time.Second})
	return s, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// SetHTTPClient sets the base client used for token requests and API calls.
//
// Any previously authenticated user client is rebuilt on top of it.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
	ctx := s.clientContext()
	s.appClient = s.app.Client(ctx)
	if s.token != nil {
		s.userClient = s.newUserClient(ctx, s.token)
	}
}

func (s *SpotifyService) clientContext() context.Context {
	return context.WithValue(context.Background(), oauth2.HTTPClient, s.httpClient)
}

// SetTokenRefreshCallback sets the function called whenever the user token source yields a new token.
//
// Must be called before [SpotifyService.OAuthenticate] to take effect.
func (s *SpotifyService) SetTokenRefreshCallback(callback func(*oauth2.Token)) {
	s.onTokenRefresh = callback
}

// OAuthenticate installs a user token. Expired tokens are refreshed on the next private read.
func (s *SpotifyService) OAuthenticate(_ context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no spotify user token", shared.ErrNotAuthenticated)
	}
	s.token = token
	s.userClient = s.newUserClient(s.clientContext(), token)
	return nil
}

func (s *SpotifyService) newUserClient(ctx context.Context, token *oauth2.Token) *http.Client {
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
	}
	return oauth2.NewClient(ctx, source)
}

// Authenticated reports whether a user token has been installed.
func (s *SpotifyService) Authenticated() bool {
	return s.userClient != nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 config used for the authorization code exchange.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports new tokens to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

// Token returns the current token, invoking the callback on the first fetch and whenever the access token changes.
func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

// doRequest performs a paced GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, client *http.Client, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr), errors.Is(err, shared.ErrRefreshFailed):
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, endpoint)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

func (s *SpotifyService) user() (*http.Client, error) {
	if s.userClient == nil {
		return nil, fmt.Errorf("%w: run the auth command to grant access", shared.ErrNotAuthenticated)
	}
	return s.userClient, nil
}

// Album retrieves an album by ID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, s.appClient, "/albums/"+url.PathEscape(albumID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, s.appClient, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	client, err := s.user()
	if err != nil {
		return nil, err
	}

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, client, "/playlists/"+url.PathEscape(playlistID), &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	client, err := s.user()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var response SpotifyPaginatedTracks
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)
	if err := s.doRequest(ctx, client, endpoint, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	client, err := s.user()
	if err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := s.doRequest(ctx, client, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
