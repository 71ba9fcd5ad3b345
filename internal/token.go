package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// NewResetToken draws length random bytes from crypto/rand and returns the
// hex encoding. The returned string is the plain token handed to the user
// out-of-band; it must never be logged or persisted.
func NewResetToken(length int) (string, error) {
	if length < 16 {
		return "", errors.New("token length below minimum")
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}

// HashToken returns the hex SHA-256 of the plain token's UTF-8 bytes. The
// hash is the only durable form of a token; re-hashing the same plain token
// reproduces it bit-for-bit.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// HashEqual compares two token hashes in constant time.
func HashEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
