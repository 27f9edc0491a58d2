// Package revocation keeps the set of access tokens that were revoked before
// their natural expiry. Entries are keyed by the SHA-256 digest of the raw
// token and disappear once the token would have expired anyway.
package revocation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex SHA-256 of token, the key under which it is recorded.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
