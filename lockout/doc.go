// Package lockout implements the account lockout policy as a pure state
// transform over the failed-attempt counter and lock deadline persisted on
// the user record.
//
// # Architecture boundaries
//
// This package never performs I/O. The Engine reads lockout state from the
// credential store, runs it through [Policy], and writes the resulting state
// back. Threshold and duration are configuration, not constants.
//
// # What this package must NOT do
//
//   - Access Redis, the credential store, or any clock other than the one
//     passed in by the caller.
//   - Import authgate or any of its subpackages.
package lockout
