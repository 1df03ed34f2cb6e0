// Package password implements password hashing and verification.
//
// # Schemes
//
//   - bcrypt, stored as "$2a$<cost>$...".
//
//   - Argon2id (default), stored in PHC string format:
//
//     $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher] hashes with the configured scheme and verifies either, dispatching
// on the stored prefix. [Hasher.NeedsUpgrade] reports hashes produced by the
// other scheme or weaker parameters so callers can re-hash after login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length
// limits) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goNotes package.
//   - Log plaintext passwords.
package password
