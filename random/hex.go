// Package random generates hex-encoded random strings for session
// defaults.
package random

import (
	"crypto/rand"
	"encoding/hex"
)

// String generates a hex string of 2n characters from n random bytes.
func String(n int) string {
	buf := make([]byte, n)

	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}

	return hex.EncodeToString(buf)
}
