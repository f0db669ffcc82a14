// Package joincode generates the short codes members use to join a group.
package joincode

import (
	"math/rand/v2"
	"strings"
)

// Alphabet is the 32-symbol set codes are drawn from. I, O, 0 and 1 are
// excluded because they are easy to mistranscribe when codes are shared
// out loud or handwritten.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed code length.
const Length = 6

// Generate returns a new code: Length characters drawn uniformly, with
// replacement, from Alphabet. Codes are not guaranteed globally unique;
// the group-creation path checks for collisions against existing groups.
func Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(Alphabet[rand.IntN(len(Alphabet))])
	}
	return b.String()
}

// Normalize canonicalizes user-entered codes: surrounding whitespace is
// trimmed and letters are uppercased, matching what Generate produces.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
