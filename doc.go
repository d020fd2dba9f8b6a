// Package authgate is an authentication and session engine fronting a user
// directory: it verifies credentials, issues and revokes signed bearer
// tokens, locks accounts after repeated failed logins, and throttles
// abusive request rates.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the error taxonomy, and value types (UserRecord, UserProfile, TokenPair,
// AuditEvent). Persistent user storage is the caller's side of the
// [UserProvider] contract; HTTP transport is the caller's side of the
// middleware package. Token encoding, revocation storage, lockout math,
// password hashing, and window counting live in subpackages and never
// reach back into this one.
//
// # What this package must NOT do
//
//   - Expose password digests or lockout counters through [UserProfile].
//   - Distinguish "unknown account" from "wrong password" in any
//     observable way.
//   - Retry failed operations internally.
package authgate
