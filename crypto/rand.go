package crypto

import (
	"crypto/rand"
	"math/big"
)

const AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns a string of length characters drawn uniformly from
// alphabet using crypto/rand. It panics if the system random source fails.
func RandomString(length int, alphabet string) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
