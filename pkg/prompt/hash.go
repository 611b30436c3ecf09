package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// shortHash returns the first 12 hex characters of the SHA-256 digest of s.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// hashJSON marshals v as canonical JSON (encoding/json sorts map keys
// alphabetically) and returns its shortHash.
func hashJSON(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return shortHash(string(payload))
}
