package logger

import (
	"crypto/sha256"
	"encoding/hex"
)

// SessionFingerprint is a short stable hash used in place of raw session ids
// in log fields.
func SessionFingerprint(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:4])
}
