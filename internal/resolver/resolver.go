// Package resolver matches free-text category hints against candidate
// category names. It is a pure string-matching package with no
// persistence or service dependencies so it can be tested in isolation.
package resolver

import "strings"

// Distance thresholds for fuzzy acceptance: a nearest neighbor is a
// match when its edit distance is below maxAbsoluteDistance or below
// maxRelativeDistance of the longer string.
const (
	maxAbsoluteDistance = 3
	maxRelativeDistance = 0.4
)

// Resolve finds the best match for hint among names, returning the
// winning index. Matching runs in strict priority order, first hit
// wins: case-insensitive exact equality, name-contains-hint,
// hint-contains-name, then Levenshtein nearest neighbor subject to the
// distance thresholds. Ties on distance keep the earliest candidate,
// so the result is deterministic for a fixed candidate ordering.
func Resolve(hint string, names []string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(hint))
	if normalized == "" {
		return 0, false
	}

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}

	for i, name := range lowered {
		if name == normalized {
			return i, true
		}
	}

	for i, name := range lowered {
		if strings.Contains(name, normalized) {
			return i, true
		}
	}

	for i, name := range lowered {
		if strings.Contains(normalized, name) {
			return i, true
		}
	}

	best := -1
	bestDistance := 0
	for i, name := range lowered {
		d := candidateDistance(normalized, name)
		if best == -1 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	if best == -1 {
		return 0, false
	}

	longer := len(normalized)
	if l := len(names[best]); l > longer {
		longer = l
	}
	if bestDistance < maxAbsoluteDistance || float64(bestDistance) < maxRelativeDistance*float64(longer) {
		return best, true
	}
	return 0, false
}

// candidateDistance measures how close a hint is to a candidate name:
// the minimum edit distance against the whole name and against each of
// its words, so a short hint like "fod" still lands on the "food" in
// "food & dining". Single-character words are skipped.
func candidateDistance(hint, name string) int {
	d := Levenshtein(hint, name)
	for _, word := range strings.Fields(name) {
		if len(word) < 2 {
			continue
		}
		if wd := Levenshtein(hint, word); wd < d {
			d = wd
		}
	}
	return d
}

// Levenshtein computes the classic edit distance between two strings
// using a two-row dynamic programming table.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Suggestions joins candidate names for inclusion in an unresolved-hint
// message.
func Suggestions(names []string) string {
	return strings.Join(names, ", ")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
