package vocab

import "crypto/rand"

// joinKeyAlphabet is a readable base32-ish alphabet without the ambiguous
// I, L, O and U. Uniqueness is enforced by the database, not here.
const joinKeyAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

// JoinKeyLength is the default length of generated join keys.
const JoinKeyLength = 6

// NewJoinKey generates a random human-enterable join key of n characters.
func NewJoinKey(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("joinkey: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = joinKeyAlphabet[int(b)%len(joinKeyAlphabet)]
	}
	return string(buf)
}
