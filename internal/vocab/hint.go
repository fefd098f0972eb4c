package vocab

import "strings"

// hintPriority orders connectors by how much a hint for them helps the
// conversation along. Missing words not in this list rank after all of it.
var hintPriority = []string{"because", "however", "recommend"}

// PickHint deterministically selects one missing vocabulary item and returns
// a canned suggestion for it. Returns "" when nothing is missing. Ties
// (several unlisted words) resolve to the first by encounter order.
func PickHint(missing []string) string {
	if len(missing) == 0 {
		return ""
	}

	best := missing[0]
	bestRank := priorityRank(best)
	for _, w := range missing[1:] {
		if r := priorityRank(w); r < bestRank {
			best, bestRank = w, r
		}
	}

	switch strings.ToLower(strings.TrimSpace(best)) {
	case "however":
		return `Try: "I liked it. However, ..."`
	case "because":
		return `Try: "... because ..."`
	case "recommend":
		return `Try: "I recommend ..."`
	default:
		return "Try to use: " + best
	}
}

func priorityRank(w string) int {
	lw := strings.ToLower(strings.TrimSpace(w))
	for i, p := range hintPriority {
		if lw == p {
			return i
		}
	}
	return len(hintPriority) + 1
}
