// Package flows contains pure-function orchestrators for every Engine
// operation: register, login, refresh, logout and authorize.
//
// Each flow function accepts a typed dependency struct and returns a result
// carrying either the payload or a failure kind. The Engine maps failure kinds
// to its public errors, metrics and audit events, which keeps the Engine type
// thin and lets the flows be tested with plain fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goNotes (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through dependency interfaces.
package flows
