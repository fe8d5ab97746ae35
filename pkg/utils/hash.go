package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryFingerprint returns a short stable identifier for a user question,
// insensitive to case and surrounding or repeated whitespace. It lets logs
// correlate repeated questions without recording the raw text.
func QueryFingerprint(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}
