// Package goNotes is the session manager of a notes backend: registration,
// login, refresh-token rotation, logout, bearer authorization and per-user
// note CRUD.
//
// Access tokens are short-lived signed JWTs and are never stored. Refresh
// tokens are JWTs that are also registered in a [refresh.Registry]; a refresh
// token is usable only while both its signature check passes and its registry
// entry exists. Rotation renames the entry so the remaining lifetime carries
// over, and logout deletes it.
//
// # Architecture boundaries
//
// goNotes is the public surface. It exposes [Engine], [Builder], [Config], the
// store contracts and value types. Flow orchestration lives in
// internal/flows, login throttling in internal/rate, storage backends under
// store/ and the HTTP layer under internal/httpapi.
//
// # What this package must NOT do
//
//   - Read the environment inside Engine operations ([ConfigFromEnv] is for
//     process startup only).
//   - Expose Redis clients or SQL handles in its public API.
//   - Import any sub-package that re-imports goNotes (no import cycles).
package goNotes
