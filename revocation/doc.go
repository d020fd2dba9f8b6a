// Package revocation tracks revoked token identifiers (jti) until their
// natural expiry.
//
// Two backends implement [Registry]: an in-process map with an injected
// clock, and a Redis store where each entry is a key with a TTL matching
// the token's remaining lifetime. Revoke atomically reports the first
// writer for a jti, which is what makes consuming a refresh token safe
// under concurrent callers; IsRevoked is a single lookup.
//
// Pruning expired entries is an optimization, not a correctness
// requirement — the token codec's own expiry check independently rejects
// expired tokens.
package revocation
