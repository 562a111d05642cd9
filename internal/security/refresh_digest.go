package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestRefreshSecret returns a SHA-256 digest of the refresh secret, hex-encoded.
// The digest is deterministic so the store can look records up by it; the raw
// secret is never persisted, and a 256-bit random secret cannot be recovered
// from its digest.
func DigestRefreshSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// RefreshSecretDigestEqual performs constant-time comparison of the provided
// secret's digest with the stored digest. Returns true only if they match.
func RefreshSecretDigestEqual(providedSecret, storedDigest string) bool {
	providedDigest := DigestRefreshSecret(providedSecret)
	return subtle.ConstantTimeCompare([]byte(providedDigest), []byte(storedDigest)) == 1
}
