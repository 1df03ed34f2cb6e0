// Package middleware adapts a goNotes Engine to net/http.
//
//   - [Guard] requires a bearer access token, calls Engine.Authorize and puts
//     the user into the request context ([UserFromContext]).
//   - [RequestLog] assigns request ids, records the client IP for login
//     throttling and writes a zerolog access line per request.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Engine).
//   - Access Redis or SQL stores.
package middleware
