package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns a hex string of length 2*n from n random bytes
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
