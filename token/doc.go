// Package token implements the signed token codec: issuance and parsing of
// access and refresh tokens carrying a subject, token kind, and unique token
// identifier (jti).
//
// # Architecture boundaries
//
// The codec is a pure transform. Issue signs claims with the configured key;
// Parse verifies signature, structure, and expiry. Revocation is not this
// package's concern — the Engine checks the jti against the revocation
// registry after Parse succeeds.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Consult the revocation registry.
//   - Import authgate.
package token
