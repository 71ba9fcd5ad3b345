// Package session is the revocation and session registry: a token blacklist
// keyed by hash, monotonic per-user token versions for global session
// invalidation, single-winner token claims, and TTL-bounded session records
// indexed per user. All state lives in the shared key-value store.
package session
