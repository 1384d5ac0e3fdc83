package matcher

import "strings"

// containmentScore is the confidence assigned when one string fully
// contains the other, e.g. "Netflix Subscription" vs "Netflix".
const containmentScore = 0.95

// ContainmentStrategy scores full containment of one string in the other.
type ContainmentStrategy struct{}

// Name returns the name of this strategy.
func (s *ContainmentStrategy) Name() string {
	return "Containment"
}

// Score returns 0.95 when either normalized string contains the other.
func (s *ContainmentStrategy) Score(a, b string) (float64, bool) {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentScore, true
	}
	return 0, false
}
