// Package matcher scores unmatched external transactions against the
// stacks they most likely belong to, auto-confirming high-confidence
// matches and queueing the rest for manual review.
//
// Similarity is computed by a small ordered chain of scoring strategies
// (exact match, containment, token overlap with typo tolerance); the first
// strategy that applies to a pair decides its score, and each heuristic
// stays testable in isolation.
package matcher

import "stacknest/internal/textutils"

// ScoringStrategy scores the similarity of two already-normalized strings
// in [0,1].
type ScoringStrategy interface {
	// Score returns the similarity and whether this strategy applies to
	// the pair at all.
	Score(a, b string) (float64, bool)

	// Name identifies the strategy for logging and tests.
	Name() string
}

// defaultStrategies is the ordered heuristic chain, strongest signal first.
// A strategy is only consulted when every earlier one declined the pair, so
// a containment match keeps its 0.95 cap even when token overlap would rate
// the pair higher.
var defaultStrategies = []ScoringStrategy{
	&ExactStrategy{},
	&ContainmentStrategy{},
	&TokenOverlapStrategy{},
}

// Similarity returns a [0,1] score for how alike two strings are. Inputs
// are normalized (lowercased, punctuation stripped) before scoring, then
// handed down the strategy chain; the first strategy that applies decides.
// The computation is relative to the shorter side rather than strictly
// symmetric.
func Similarity(a, b string) float64 {
	na := textutils.Normalize(a)
	nb := textutils.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	for _, strategy := range defaultStrategies {
		if score, ok := strategy.Score(na, nb); ok {
			return score
		}
	}
	return 0
}
