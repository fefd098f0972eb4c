package vocab

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJoinKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := NewJoinKey(JoinKeyLength)
		assert.Len(t, key, JoinKeyLength)
		for _, c := range key {
			assert.True(t, strings.ContainsRune(joinKeyAlphabet, c), "unexpected char %q", c)
		}
		seen[key] = true
	}
	// Collisions across 100 draws from a 30^6 space would be remarkable.
	assert.Greater(t, len(seen), 95)
}

func TestJoinKeyAlphabetExcludesAmbiguous(t *testing.T) {
	for _, c := range "ILOU01" {
		assert.NotContains(t, joinKeyAlphabet, string(c))
	}
}
