package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Catalog errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("catalog item not found")
	ErrUnsupportedURL     = fmt.Errorf("unsupported spotify url")
	ErrEmptyCollection    = fmt.Errorf("collection has no tracks")

	// Pipeline errors
	ErrResolution        = fmt.Errorf("metadata resolution failed")
	ErrAcquisitionFailed = fmt.Errorf("acquisition failed")
	ErrTranscodeFailed   = fmt.Errorf("transcode failed")
	ErrNothingConverted  = fmt.Errorf("no tracks converted")
	ErrCommandStart      = fmt.Errorf("command could not be started")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Hint returns a follow-up instruction for errors the user can fix, or "" when there is none.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshFailed):
		return "run `spotdown auth` to grant access to your playlists and liked songs"
	case errors.Is(err, ErrMissingCredentials):
		return "set client_id and client_secret under [credentials.spotify] in the config file"
	case errors.Is(err, ErrUnsupportedURL):
		return "use an open.spotify.com album, playlist, or track link, or \"liked\""
	case errors.Is(err, ErrCommandStart):
		return "run `spotdown check` to verify spotdl and ffmpeg are installed"
	}
	return ""
}
