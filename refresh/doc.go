// Package refresh implements the refresh-token registry: the server-side record
// of which refresh tokens are still live.
//
// # Storage
//
// Each entry maps sha256(token) to the owning user id and expires with the
// token. Rotation renames an entry in one step and keeps its remaining ttl, so
// a rotated chain never outlives the refresh token that started it.
//
// # Implementations
//
//   - [RedisRegistry]: Redis keys with native expiry; Rename is a Lua script.
//   - [MemoryRegistry]: mutex-guarded map with an injectable clock.
//
// # What this package must NOT do
//
//   - Decode or verify JWTs.
//   - Import goNotes or jwt.
package refresh
