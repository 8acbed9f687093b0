// Package revocation records refresh tokens that must never be accepted
// again.
//
// Entries are keyed by the SHA-256 digest of the token, never the token
// itself, and carry no expiry: once revoked, a token stays revoked. Revoke is
// idempotent. A store that cannot answer IsRevoked returns an error and the
// caller must treat the token as unusable.
//
// Backends: [RedisStore] here, PostgreSQL in the postgres sub-package, and
// [Cached], a read-through decorator that remembers positive answers.
package revocation
