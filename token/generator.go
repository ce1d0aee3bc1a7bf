package token

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// DefaultLength is the session token length in characters. 256 characters
// over a 64-symbol alphabet gives 1536 bits of entropy, which makes a token
// collision a storage-layer error rather than something to retry around.
const DefaultLength = 256

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Generate produces a token of the given length drawn uniformly from the
// 64-character alphabet. A length <= 0 selects DefaultLength. The output is
// never reproducible; uniqueness is enforced by the session store, and
// callers must surface a uniqueness-constraint failure rather than ignore it.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[token.Generate] rand.Read")
	}

	out := make([]byte, length)
	for i, b := range bytes {
		// 64 divides 256, so indexing by b%64 introduces no modulo bias.
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// InAlphabet reports whether every character of s belongs to the token
// alphabet. Used by the gateway to reject garbage tokens before a store
// lookup.
func InAlphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '/':
		default:
			return false
		}
	}
	return true
}
