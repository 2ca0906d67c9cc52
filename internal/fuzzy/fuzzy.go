// Package fuzzy picks the closest known word for a possibly misheard one.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio is the difflib similarity of a and b over their characters, in [0,1].
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

// Closest returns up to n candidates whose similarity to word is at least
// cutoff, best first. Ties keep the candidates' input order.
func Closest(word string, candidates []string, n int, cutoff float64) []string {
	if n <= 0 {
		return nil
	}

	type scored struct {
		s     string
		score float64
	}

	var hits []scored
	for _, c := range candidates {
		if r := Ratio(word, c); r >= cutoff {
			hits = append(hits, scored{c, r})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.s
	}
	return out
}

// Best returns the single closest candidate above cutoff.
func Best(word string, candidates []string, cutoff float64) (string, bool) {
	m := Closest(word, candidates, 1, cutoff)
	if len(m) == 0 {
		return "", false
	}
	return m[0], true
}

func chars(s string) []string {
	return strings.Split(s, "")
}
