// Package similartext finds the closest matches to a misspelled name,
// used to suggest alternatives in name resolution errors.
package similartext

import (
	"fmt"
	"sort"
	"strings"
)

// maxTextLength bounds the names considered; comparing against very long
// names is both slow and useless as a suggestion.
const maxTextLength = 64

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// distance is the Levenshtein edit distance between two strings.
func distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Find returns a suggestion message naming the closest matches to src among
// names, or an empty string when nothing is close enough. Matching is
// case-insensitive; ties are reported in input order.
func Find(names []string, src string) string {
	if len(src) == 0 || len(src) > maxTextLength {
		return ""
	}
	lowSrc := strings.ToLower(src)

	minDist := -1
	var matches []string
	for _, name := range names {
		if len(name) > maxTextLength {
			continue
		}
		d := distance(strings.ToLower(name), lowSrc)
		switch {
		case minDist == -1 || d < minDist:
			minDist = d
			matches = []string{name}
		case d == minDist:
			matches = append(matches, name)
		}
	}
	// a distance beyond half the input is noise, not a typo
	if len(matches) == 0 || minDist > len(src)/2 {
		return ""
	}
	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// FindFromMap is Find over the keys of a map, in sorted order so the
// suggestion is deterministic.
func FindFromMap[V any](names map[string]V, src string) string {
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Find(keys, src)
}
