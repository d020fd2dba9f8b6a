// Package middleware exposes HTTP middleware adapters built on top of
// authgate.Engine token validation.
//
// [Guard] reads the Authorization header, calls Engine.Authenticate, and
// injects the authenticated subject into the request context. It also
// records the client address in the context so downstream engine calls
// made by handlers are rate-limited per client.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the revocation backend (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Authenticate.
package middleware
