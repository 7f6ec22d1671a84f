// Package services reads collection metadata from the Spotify Web API and projects it into [models.CollectionMetadata].
//
// # Spotify Client
//
// [SpotifyService] makes one read per content kind. Public kinds (album, track) use the client credentials
// grant; private kinds (playlist, liked songs) use the user token stored in config, refreshed through the
// oauth2 token source. A refreshed token is handed to the callback set with [SpotifyService.SetTokenRefreshCallback]
// so the CLI can persist it.
//
// Requests are paced by a [rate.Limiter].
//
// # Resolver
//
// [ParseLink] reduces a Spotify URL or URI to a [models.Link]. [Resolver.Resolve] dispatches on the link's kind
// and applies the projection for that kind. Positions are always the 1-based rank among included tracks.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrUnsupportedURL] : the input is not a recognized link
//   - [shared.ErrNotAuthenticated] : a private kind was requested without a user token
//   - [shared.ErrTokenExpired] : HTTP 401, reauthorization needed
//   - [shared.ErrNotFound] : HTTP 404
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrEmptyCollection] : projection produced no tracks
package services
