// Package rate throttles failed logins with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys live
// under the configured prefix:
//   - <prefix>:login:user:<hash>  failed logins per email
//   - <prefix>:login:ip:<ip>      failed logins per client IP
//
// A successful login deletes both counters.
package rate
