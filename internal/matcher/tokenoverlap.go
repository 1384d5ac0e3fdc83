package matcher

import (
	"strings"

	"stacknest/internal/textutils"
)

const (
	// wordContainmentCeiling caps the score of a word that is a substring
	// of another; it scales down by the length ratio.
	wordContainmentCeiling = 0.85
	// editDistanceCeiling caps the score of a near-miss word within two
	// edits; it scales down by the relative edit distance.
	editDistanceCeiling = 0.8
	// maxWordEditDistance is the typo tolerance for word comparison.
	maxWordEditDistance = 2
)

// TokenOverlapStrategy tokenizes both strings into significant words and
// scores how well each word of the shorter side is covered by the other
// side, with partial credit for substrings and small typos. The sum of
// best-per-word scores is normalized by the shorter token count.
type TokenOverlapStrategy struct{}

// Name returns the name of this strategy.
func (s *TokenOverlapStrategy) Name() string {
	return "TokenOverlap"
}

// Score computes the normalized token overlap of the two strings.
func (s *TokenOverlapStrategy) Score(a, b string) (float64, bool) {
	aWords := textutils.SignificantWords(a)
	bWords := textutils.SignificantWords(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0, false
	}

	shorter, longer := aWords, bWords
	if len(bWords) < len(aWords) {
		shorter, longer = bWords, aWords
	}

	total := 0.0
	for _, word := range shorter {
		total += bestWordScore(word, longer)
	}
	score := total / float64(len(shorter))
	if score > 1.0 {
		score = 1.0
	}
	return score, true
}

// bestWordScore returns the best partial-match score of word against the
// candidate token set: exact word (1.0), substring containment scaled by
// length ratio, or an edit-distance near-miss scaled by closeness.
func bestWordScore(word string, candidates []string) float64 {
	best := 0.0
	for _, candidate := range candidates {
		score := 0.0
		switch {
		case word == candidate:
			score = 1.0
		case strings.Contains(candidate, word) || strings.Contains(word, candidate):
			shorterLen, longerLen := len(word), len(candidate)
			if shorterLen > longerLen {
				shorterLen, longerLen = longerLen, shorterLen
			}
			score = wordContainmentCeiling * float64(shorterLen) / float64(longerLen)
		default:
			dist := textutils.Levenshtein(word, candidate)
			if dist <= maxWordEditDistance {
				longerLen := len(word)
				if len(candidate) > longerLen {
					longerLen = len(candidate)
				}
				score = editDistanceCeiling * (1.0 - float64(dist)/float64(longerLen))
			}
		}
		if score > best {
			best = score
		}
		if best >= 1.0 {
			break
		}
	}
	return best
}
