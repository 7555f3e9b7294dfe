package persist

import (
	"golang.org/x/crypto/blake2b"
)

// HashToken is the at-rest form of a rejoin token.
func HashToken(token string) []byte {
	sum := blake2b.Sum256([]byte(token))
	return sum[:]
}
