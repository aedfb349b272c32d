package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ClickEvent is an immutable record of one successful redirect. It carries a
// salted fingerprint instead of the raw client address so no PII is retained.
type ClickEvent struct {
	Slug        string    `json:"slug"`
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint"`
	Referrer    string    `json:"referrer,omitempty"`
}

// Fingerprint derives an opaque client hash from IP and user agent.
func Fingerprint(ip, userAgent, salt string) string {
	h := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + salt))
	return hex.EncodeToString(h[:])
}
