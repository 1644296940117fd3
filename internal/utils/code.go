package utils

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomCode returns n characters drawn uniformly from [0-9A-Z] using a
// cryptographically secure source. Booking codes use it for their suffix.
func RandomCode(n int) (string, error) {
	buf := make([]byte, n)
	alphabet := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		k, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[k.Int64()]
	}
	return string(buf), nil
}
