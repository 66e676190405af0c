// Package signing implements the HMAC request signature shared between the
// gateway and first-party clients.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Sign computes the hex HMAC-SHA256 digest of "{timestamp}:{path}" under the
// shared secret.
func Sign(secret []byte, timestamp int64, path string) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d:%s", timestamp, path)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a supplied hex signature against the expected digest.
// The comparison is constant time and case-insensitive so uppercase hex
// from clients is accepted.
func Verify(secret []byte, timestamp int64, path, signature string) bool {
	expected := Sign(secret, timestamp, path)
	supplied := strings.ToLower(strings.TrimSpace(signature))
	return hmac.Equal([]byte(expected), []byte(supplied))
}
