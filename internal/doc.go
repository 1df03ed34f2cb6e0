// Package internal holds code that is private to goNotes.
//
// # Sub-packages
//
//   - app: process wiring for notesd (env settings, logger, server lifecycle)
//   - dbx: shared database/sql helpers for the SQL stores
//   - flows: pure-function orchestrators behind each session Engine operation
//   - httpapi: the JSON HTTP surface
//   - rate: Redis-backed login throttling
//   - sqlstore: the SQL user and note store shared by the postgres and mysql backends
//
// # What this package must NOT do
//
//   - Export types that appear in the public goNotes API.
//   - Be imported by any package outside the goNotes module.
package internal
