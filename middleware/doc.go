// Package middleware adapts an authchain Engine to net/http.
//
// # Guards
//
//   - [Require] runs one named strategy and stores the Verification in the
//     request context.
//   - [RequireAnyRole] rejects verified requests whose access token carries
//     none of the listed roles.
//
// # Cookies
//
// [RefreshCookie] writes and clears the refresh token cookie. Cookies are
// always HttpOnly; in production mode they are also Secure and their values
// carry an HMAC-SHA256 tag that [RefreshCookie.Extractor] checks before the
// token reaches the engine.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or touch storage; every decision is delegated to the engine.
package middleware
