// Package id generates short sortable reference codes. Farmers quote these
// codes over the phone to extension officers, so they are uppercase,
// URL-safe, and avoid easily-confused characters.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewCode generates a 16-character reference code: 6 characters of
// millisecond timestamp followed by 10 random characters. Codes are
// lexicographically sortable by creation time.
func NewCode() string {
	// Lower 30 bits of milliseconds give ~34 years of unique timestamps.
	ts := uint64(time.Now().UnixMilli()) & 0x3FFFFFFF

	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		// Degraded but functional fallback.
		binary.BigEndian.PutUint64(randomBytes[:8], uint64(time.Now().UnixNano()))
	}

	var code [16]byte
	for i := 0; i < 6; i++ {
		shift := uint(25 - 5*i)
		code[i] = crockfordBase32[(ts>>shift)&0x1F]
	}
	for i, b := range randomBytes {
		code[6+i] = crockfordBase32[b&0x1F]
	}
	return string(code[:])
}
