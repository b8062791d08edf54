package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 of the text's UTF-8 bytes as lowercase
// hex. Used as the per-job dedup key and for equality checks without
// comparing full content.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
