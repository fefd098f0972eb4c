// Package vocab implements the deterministic vocabulary policies: coverage
// matching over student text, hint selection, and join-key generation.
package vocab

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	nonWordRun = regexp.MustCompile(`[^a-z0-9' ]+`)
	tokenSplit = regexp.MustCompile(`[^a-z0-9']+`)
)

// Coverage splits vocab into (used, missing) against the given text.
// Single-word entries match on the token set; entries containing a space are
// matched as whole phrases with word-boundary padding, so "wake up" does not
// match inside "awaken upper". Comparison is case-insensitive and order of
// vocab is preserved in both outputs.
//
// Callers feed the entire accumulated student corpus for a session, not just
// the latest message, so feedback never re-asks for words already used.
func Coverage(text string, vocab []string) (used, missing []string) {
	normalized := normalize(text)

	tokens := make(map[string]struct{})
	for _, tok := range tokenSplit.Split(normalized, -1) {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}

	hay := " " + normalized + " "
	used = make([]string, 0, len(vocab))
	for _, v := range vocab {
		vv := strings.TrimSpace(v)
		var hit bool
		if strings.Contains(vv, " ") {
			p := normalize(vv)
			hit = p != "" && strings.Contains(hay, " "+p+" ")
		} else {
			_, hit = tokens[normalize(vv)]
		}
		if hit {
			used = append(used, v)
		}
	}

	missing = make([]string, 0, len(vocab))
	for _, v := range vocab {
		if !containsFold(used, v) {
			missing = append(missing, v)
		}
	}
	return used, missing
}

func containsFold(items []string, s string) bool {
	for _, it := range items {
		if strings.EqualFold(it, s) {
			return true
		}
	}
	return false
}

// normalize lowercases and collapses everything outside [a-z0-9' ] to single
// spaces, then trims.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = spaceRun.ReplaceAllString(s, " ")
	s = nonWordRun.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
