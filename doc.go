// Package resetkit implements the credential-reset and abuse-prevention core
// of an authentication system: single-use password-reset tokens, password
// change validation with history and age policy, and the Redis-backed state
// behind those flows: rate-limit counters, a token revocation blacklist,
// monotonic per-user token versions for global session invalidation, and
// IP-reputation scoring.
//
// The package is a linkable library, not a service. It defines no network
// protocol of its own; the HTTP/RPC layer, durable persistence of
// [ResetTokenRecord] values, and email delivery all belong to the caller.
// All shared mutable state lives in Redis with TTLs, so the library is
// correct across concurrent requests and multiple service instances without
// in-process locks. Entries in the store are ephemeral; every flow tolerates
// losing them on flush or restart.
//
// # Architecture boundaries
//
// resetkit is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (ResetTokenRecord, VerificationResult, AuditEntry). Token
// generation, IP matching, and fixed-window counters live under internal/.
// The TTL store wrapper (kvstore), session registry (session), default
// password collaborators (password), and epoch-stamped session tokens
// (sessiontoken) are importable subpackages.
//
// # Failure policy
//
// Verification and policy failures are returned as typed results with coarse
// codes, never as opaque errors, so callers can render user-facing messages
// without leaking which check failed. Infrastructure failures surface as
// [ErrStoreUnavailable]. The blacklist read path alone fails open by default
// (a store outage must not become a full authentication outage); set
// Blacklist.FailClosed to invert that per deployment.
package resetkit
