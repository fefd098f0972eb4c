package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverageEmptyText(t *testing.T) {
	used, missing := Coverage("", []string{"because", "however"})
	assert.Empty(t, used)
	assert.Equal(t, []string{"because", "however"}, missing)
}

func TestCoverageSingleWordMatch(t *testing.T) {
	used, missing := Coverage("I would recommend this movie", []string{"recommend"})
	assert.Equal(t, []string{"recommend"}, used)
	assert.Empty(t, missing)
}

func TestCoverageCaseInsensitive(t *testing.T) {
	used, _ := Coverage("BECAUSE it was fun", []string{"because"})
	assert.Equal(t, []string{"because"}, used)
}

func TestCoveragePunctuationIgnored(t *testing.T) {
	used, _ := Coverage("I liked it, however... it was long!", []string{"however"})
	assert.Equal(t, []string{"however"}, used)
}

func TestCoverageTokenNotSubstring(t *testing.T) {
	// "up" must match as its own token, never inside another word.
	used, missing := Coverage("wake up early", []string{"up"})
	assert.Equal(t, []string{"up"}, used)
	assert.Empty(t, missing)

	used, missing = Coverage("the upper floor", []string{"up"})
	assert.Empty(t, used)
	assert.Equal(t, []string{"up"}, missing)
}

func TestCoveragePhraseMatch(t *testing.T) {
	used, _ := Coverage("I wake up at seven", []string{"wake up"})
	assert.Equal(t, []string{"wake up"}, used)
}

func TestCoveragePhraseWordBoundary(t *testing.T) {
	// Padding prevents accidental substring matches across word boundaries.
	_, missing := Coverage("awaken upper class", []string{"wake up"})
	assert.Equal(t, []string{"wake up"}, missing)

	_, missing = Coverage("I woke him up", []string{"wake him"})
	assert.Equal(t, []string{"wake him"}, missing)
}

func TestCoverageApostropheKept(t *testing.T) {
	used, _ := Coverage("I don't know", []string{"don't"})
	assert.Equal(t, []string{"don't"}, used)
}

func TestCoveragePartition(t *testing.T) {
	vocab := []string{"because", "however", "recommend", "wake up"}
	used, missing := Coverage("I liked it because it was short", vocab)

	assert.Equal(t, []string{"because"}, used)
	assert.Equal(t, []string{"however", "recommend", "wake up"}, missing)
	assert.Len(t, used, len(vocab)-len(missing))
	for _, u := range used {
		assert.NotContains(t, missing, u)
	}
}

func TestCoverageDuplicateEntries(t *testing.T) {
	// A single match in text satisfies every occurrence of the term.
	used, missing := Coverage("because because", []string{"because", "Because"})
	assert.Equal(t, []string{"because", "Because"}, used)
	assert.Empty(t, missing)
}

func TestCoverageOrderPreserved(t *testing.T) {
	vocab := []string{"zebra", "apple", "mango"}
	used, missing := Coverage("mango and apple", vocab)
	assert.Equal(t, []string{"apple", "mango"}, used)
	assert.Equal(t, []string{"zebra"}, missing)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", normalize("  Hello,   WORLD!  "))
	assert.Equal(t, "don't stop", normalize("Don't stop."))
	assert.Equal(t, "", normalize("!!! ???"))
}
