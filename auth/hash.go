package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short SHA-256 fingerprint of a secret, safe to print
// in diagnostics.
func Fingerprint(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:6])
}
