package random

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Alphabet is the URL-safe alphabet short codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var ErrInvalidLength = errors.New("length must be positive")

// NewRandomString returns a string of the given length drawn uniformly from Alphabet
// using crypto/rand.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(Alphabet)))

	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = Alphabet[n.Int64()]
	}

	return string(out), nil
}
