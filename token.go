package resetkit

import "github.com/resetkit/resetkit/internal"

// HashToken returns the hex SHA-256 hash of a plain token. This is the form
// tokens are persisted and looked up in: for a token issued by
// [Engine.IssueResetToken] it reproduces [ResetTokenRecord.TokenHash], so a
// caller holding only the plain token from a confirm request can locate the
// stored record. Revocation APIs take the same hash.
func HashToken(plain string) string {
	return internal.HashToken(plain)
}
