// Package textutils provides the text normalization and comparison
// primitives shared by transaction matching and the recurring-bill
// detection heuristic.
package textutils

import (
	"regexp"
	"strings"
)

var punctuation = regexp.MustCompile(`[^a-z0-9\s]+`)
var whitespace = regexp.MustCompile(`\s+`)

// stopWords are tokens too generic to signal a relationship between a
// transaction description and a stack name.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"inc": true, "llc": true, "ltd": true, "corp": true, "co": true,
	"com": true, "www": true, "pay": true, "card": true, "debit": true,
	"pos": true, "ach": true, "online": true, "purchase": true,
}

// Normalize lowercases a string, strips punctuation and collapses
// whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuation.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsStopWord reports whether the (already lowercased) word carries no
// matching signal.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// SignificantWords normalizes s and returns its tokens longer than two
// characters that are not stop-words.
func SignificantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(Normalize(s)) {
		if len(w) > 2 && !IsStopWord(w) {
			words = append(words, w)
		}
	}
	return words
}

// SharesSignificantWord reports whether a and b have at least one
// significant word in common.
func SharesSignificantWord(a, b string) bool {
	bWords := make(map[string]bool)
	for _, w := range SignificantWords(b) {
		bWords[w] = true
	}
	for _, w := range SignificantWords(a) {
		if bWords[w] {
			return true
		}
	}
	return false
}

// Levenshtein returns the edit distance between two strings: the minimum
// number of single-character insertions, deletions and substitutions
// turning a into b.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
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
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
