package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashPassword returns the base64 encoded SHA-256 digest of the
// plaintext password. The digest is deterministic: the same input
// always produces the same output, which is what stored hashes and
// VerifyPassword rely on. Empty input is hashed as-is.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword recomputes the digest and compares for exact equality.
func VerifyPassword(plain, digest string) bool {
	return HashPassword(plain) == digest
}
