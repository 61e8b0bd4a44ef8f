// Package suggest offers "did you mean" hints for unresolved identifiers,
// using fuzzy matching rather than exact lookups so near-miss typos still
// surface a candidate.
package suggest

import "github.com/lithammer/fuzzysearch/fuzzy"

// Best returns the closest known name to query, or "" if nothing is close
// enough to be worth suggesting.
func Best(query string, known []string) string {
	if len(known) == 0 {
		return ""
	}
	ranked := fuzzy.RankFindFold(query, known)
	if len(ranked) == 0 {
		return ""
	}
	best := ranked[0]
	for _, r := range ranked[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
