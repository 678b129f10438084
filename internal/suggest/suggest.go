// Package suggest ranks near-miss names for "did you mean" hints.
package suggest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxDistance bounds the edit distance of fallback suggestions.
const maxDistance = 3

// Closest returns up to n candidates closest to target, best first. Fuzzy
// subsequence matches win; when there are none, candidates within a small
// case-insensitive edit distance are returned instead.
func Closest(target string, candidates []string, n int) []string {
	if target == "" || len(candidates) == 0 || n <= 0 {
		return nil
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	sort.Sort(ranks)
	out := make([]string, 0, n)
	for _, r := range ranks {
		if len(out) == n {
			return out
		}
		out = append(out, r.Target)
	}
	if len(out) > 0 {
		return out
	}

	type scored struct {
		name string
		dist int
	}
	var near []scored
	lt := strings.ToLower(target)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(lt, strings.ToLower(c)); d <= maxDistance {
			near = append(near, scored{c, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	for _, s := range near {
		if len(out) == n {
			break
		}
		out = append(out, s.name)
	}
	return out
}

// Hint formats suggestions as a trailing clause, or "" when there are none.
func Hint(suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return " (did you mean " + suggestions[0] + "?)"
	}
	return " (did you mean one of " + strings.Join(suggestions, ", ") + "?)"
}
