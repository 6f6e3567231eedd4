// Package checksum fingerprints the serialized week collection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats a digest as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether an If-Match style value names sum. Surrounding
// quotes and a weak "W/" prefix are ignored; "*" matches anything.
func Matches(tag, sum string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return true
	}
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`) == sum
}
