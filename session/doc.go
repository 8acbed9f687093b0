// Package session holds the live refresh chains of authchain: one entry per
// session id (the jti shared by an access/refresh pair) mapping to the user
// that owns it.
//
// An entry present in the [Cache] means the chain may still be renewed.
// [Cache.Take] removes and returns an entry atomically, so when two renewals
// race on the same session id exactly one of them gets the user.
//
// Two implementations are provided: [RedisCache] for shared deployments and
// [MemoryCache] for single-process use and tests. Neither interprets tokens.
package session
