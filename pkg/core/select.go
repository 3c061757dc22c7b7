package core

import "fmt"

// SelectBest reduces a list of feasible results to the winner. Comparator,
// applied in strict order: (1) maximize TotalMatchedAmount, (2) maximize
// MatchingEfficiency, (3) minimize AverageRate. When all three are exactly
// equal the first-seen candidate stays, so identical candidate lists always
// yield identical winners.
func SelectBest(results []*MatchResult) (*MatchResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("select best: %w", ErrEmptyResultSet)
	}
	best := results[0]
	for _, r := range results[1:] {
		if betterResult(r, best) {
			best = r
		}
	}
	return best, nil
}

// betterResult reports whether a strictly beats b under the ordered
// tie-break rules.
func betterResult(a, b *MatchResult) bool {
	if c := a.TotalMatchedAmount.Cmp(b.TotalMatchedAmount); c != 0 {
		return c > 0
	}
	if c := a.MatchingEfficiency.Cmp(b.MatchingEfficiency); c != 0 {
		return c > 0
	}
	return a.AverageRate.Cmp(b.AverageRate) < 0
}
