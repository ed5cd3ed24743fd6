package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomString(t *testing.T) {
	t.Run("length_and_alphabet", func(t *testing.T) {
		for _, length := range []int{1, 7, 32} {
			s, err := NewRandomString(length)
			require.NoError(t, err)
			assert.Len(t, s, length)
			for _, r := range s {
				assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
			}
		}
	})

	t.Run("invalid_length", func(t *testing.T) {
		_, err := NewRandomString(0)
		assert.ErrorIs(t, err, ErrInvalidLength)

		_, err = NewRandomString(-3)
		assert.ErrorIs(t, err, ErrInvalidLength)
	})

	t.Run("distinct", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			s, err := NewRandomString(7)
			require.NoError(t, err)
			_, dup := seen[s]
			require.False(t, dup, "duplicate code %s", s)
			seen[s] = struct{}{}
		}
	})
}
