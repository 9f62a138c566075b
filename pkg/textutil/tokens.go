package textutil

import "strings"

// WordSet tokenizes text into a lowercased set of words. Word boundaries
// are any non-alphanumeric runes; empty tokens are dropped.
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, word := range splitWords(text) {
		set[word] = struct{}{}
	}

	return set
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'

		return !isLower && !isDigit
	})
}

// JaccardSets returns |A∩B| / |A∪B| for two sets. Two empty sets are
// identical (1.0); one empty set against a non-empty one is 0.
func JaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var intersection int

	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}

// JaccardWords returns the word-set Jaccard similarity of two strings.
func JaccardWords(a, b string) float64 {
	return JaccardSets(WordSet(a), WordSet(b))
}

// JaccardMultisets returns the multiset Jaccard similarity of two string
// slices: sum of min counts over sum of max counts.
func JaccardMultisets(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	countsA := multisetCounts(a)
	countsB := multisetCounts(b)

	var sumMin, sumMax int

	for k, ca := range countsA {
		cb := countsB[k]
		sumMin += min(ca, cb)
		sumMax += max(ca, cb)
	}

	for k, cb := range countsB {
		if _, seen := countsA[k]; !seen {
			sumMax += cb
		}
	}

	if sumMax == 0 {
		return 0
	}

	return float64(sumMin) / float64(sumMax)
}

func multisetCounts(items []string) map[string]int {
	counts := make(map[string]int, len(items))
	for _, item := range items {
		counts[item]++
	}

	return counts
}
