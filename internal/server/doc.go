// Package server runs the local OAuth callback used by `spotdown auth`.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with a [Middleware] stack. [RequestLogger] logs each request
// without its query string.
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for tokens once, and
// delivers the result through a channel. A second callback is rejected.
//
// [CallbackServer] owns the listener lifecycle: Start binds the configured host and port, Wait blocks for
// the result with a timeout and shuts the server down.
package server
