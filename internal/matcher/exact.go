package matcher

// ExactStrategy scores normalized string equality.
type ExactStrategy struct{}

// Name returns the name of this strategy.
func (s *ExactStrategy) Name() string {
	return "Exact"
}

// Score returns 1.0 when the normalized strings are identical.
func (s *ExactStrategy) Score(a, b string) (float64, bool) {
	if a == b {
		return 1.0, true
	}
	return 0, false
}
