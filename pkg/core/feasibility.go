package core

import "math/big"

// Feasible reports whether every multi-order group in the partition could
// match at all. It is a pruning step: one bad group discards the whole
// partition before evaluation. Singleton groups never block.
func (p Partition) Feasible() bool {
	for _, g := range p {
		if len(g) > 1 && !g.feasible() {
			return false
		}
	}
	return true
}

// feasible checks the three multi-order group requirements: both sides
// present, rate ranges overlapping, and at least one maturity shared by a
// lender and a borrower.
func (g Group) feasible() bool {
	var (
		minLenderRate, maxBorrowerRate *big.Int
		lenderMaturities               = make(map[int64]struct{})
		borrowerMaturities             = make(map[int64]struct{})
	)
	for _, o := range g {
		switch o.Side {
		case SideLender:
			if minLenderRate == nil || o.Rate.Cmp(minLenderRate) < 0 {
				minLenderRate = o.Rate
			}
			lenderMaturities[o.Maturity] = struct{}{}
		case SideBorrower:
			if maxBorrowerRate == nil || o.Rate.Cmp(maxBorrowerRate) > 0 {
				maxBorrowerRate = o.Rate
			}
			borrowerMaturities[o.Maturity] = struct{}{}
		}
	}
	if minLenderRate == nil || maxBorrowerRate == nil {
		return false // one-sided group
	}
	if minLenderRate.Cmp(maxBorrowerRate) > 0 {
		return false // cheapest lender still asks more than any borrower pays
	}
	for m := range lenderMaturities {
		if _, ok := borrowerMaturities[m]; ok {
			return true
		}
	}
	return false // no common maturity
}
