// Package session manages the two signed cookies Draftwire relies on:
// the long-lived Linear access token and the short-lived OAuth CSRF state.
// All cross-request state lives in these cookies; the server keeps nothing
// in memory between requests.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Codec signs opaque string values so they can round-trip through the
// client's cookie jar without being forged or modified. The wire format is
// value + "." + hex(HMAC-SHA256(secret, value)).
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. An empty secret is a configuration error.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("session: signing secret is required")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Sign returns the signed blob for value.
func (c *Codec) Sign(value string) string {
	return value + "." + c.digest(value)
}

// Verify checks a signed blob and returns the original value. The second
// return is false for anything malformed or tampered with: wrong part
// count, empty parts, digest length mismatch, or digest mismatch. The
// digest comparison is constant-time.
func (c *Codec) Verify(blob string) (string, bool) {
	parts := strings.Split(blob, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	value, provided := parts[0], parts[1]
	want := c.digest(value)
	if len(provided) != len(want) {
		return "", false
	}
	if !hmac.Equal([]byte(provided), []byte(want)) {
		return "", false
	}
	return value, true
}

func (c *Codec) digest(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
