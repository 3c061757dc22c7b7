package core

import (
	"math/big"
	"sort"
)

var two = big.NewInt(2)

// Evaluate scores a partition that already passed the feasibility filter.
// Singleton groups contribute their principal to the unmatched total of
// their side; multi-order groups clear at a single effective rate bounded
// by the smaller side's volume.
func Evaluate(p Partition) *MatchResult {
	res := &MatchResult{
		Groups:              make([]GroupMatch, 0, len(p)),
		TotalLenderAmount:   new(big.Int),
		TotalBorrowerAmount: new(big.Int),
		TotalMatchedAmount:  new(big.Int),
		AverageRate:         new(big.Int),
		MatchingEfficiency:  new(big.Int),
		RateSpread:          new(big.Int),
	}

	// Volume-weighted rate numerator: Σ(effectiveRate × matchedAmount).
	weightedRate := new(big.Int)

	for _, g := range p {
		gm := evaluateGroup(g)
		res.Groups = append(res.Groups, gm)
		res.TotalLenderAmount.Add(res.TotalLenderAmount, gm.TotalLenderAmount)
		res.TotalBorrowerAmount.Add(res.TotalBorrowerAmount, gm.TotalBorrowerAmount)
		if gm.Kind != MatchNone {
			res.TotalMatchedAmount.Add(res.TotalMatchedAmount, gm.MatchedAmount)
			weightedRate.Add(weightedRate, new(big.Int).Mul(gm.EffectiveRate, gm.MatchedAmount))
		}
	}

	res.UnmatchedLenderAmount = new(big.Int).Sub(res.TotalLenderAmount, res.TotalMatchedAmount)
	res.UnmatchedBorrowerAmount = new(big.Int).Sub(res.TotalBorrowerAmount, res.TotalMatchedAmount)

	// Fixed-point aggregates, truncated toward zero; big.Int.Quo truncates
	// for non-negative operands, which is all that can occur here.
	if res.TotalMatchedAmount.Sign() > 0 {
		res.AverageRate.Mul(weightedRate, big.NewInt(RateScale))
		res.AverageRate.Quo(res.AverageRate, res.TotalMatchedAmount)
	}
	submitted := new(big.Int).Add(res.TotalLenderAmount, res.TotalBorrowerAmount)
	if submitted.Sign() > 0 {
		res.MatchingEfficiency.Mul(res.TotalMatchedAmount, two)
		res.MatchingEfficiency.Mul(res.MatchingEfficiency, big.NewInt(RateScale))
		res.MatchingEfficiency.Quo(res.MatchingEfficiency, submitted)
	}

	res.Feasible = res.TotalMatchedAmount.Sign() > 0
	res.Kind = overallKind(res.Groups)
	return res
}

func evaluateGroup(g Group) GroupMatch {
	gm := GroupMatch{
		Orders:              g,
		TotalLenderAmount:   new(big.Int),
		TotalBorrowerAmount: new(big.Int),
		MatchedAmount:       new(big.Int),
		EffectiveRate:       new(big.Int),
		Kind:                MatchNone,
	}

	var (
		minLenderRate, maxBorrowerRate *big.Int
		lenderMaturities               = make(map[int64]struct{})
		borrowerMaturities             = make(map[int64]struct{})
	)
	for _, o := range g {
		switch o.Side {
		case SideLender:
			gm.TotalLenderAmount.Add(gm.TotalLenderAmount, o.Amount)
			if minLenderRate == nil || o.Rate.Cmp(minLenderRate) < 0 {
				minLenderRate = o.Rate
			}
			lenderMaturities[o.Maturity] = struct{}{}
		case SideBorrower:
			gm.TotalBorrowerAmount.Add(gm.TotalBorrowerAmount, o.Amount)
			if maxBorrowerRate == nil || o.Rate.Cmp(maxBorrowerRate) > 0 {
				maxBorrowerRate = o.Rate
			}
			borrowerMaturities[o.Maturity] = struct{}{}
		}
	}

	// Passthrough: a singleton never matches, its principal stays on its
	// own side's unmatched total.
	if len(g) < 2 {
		return gm
	}

	cmp := gm.TotalLenderAmount.Cmp(gm.TotalBorrowerAmount)
	if cmp <= 0 {
		gm.MatchedAmount.Set(gm.TotalLenderAmount)
	} else {
		gm.MatchedAmount.Set(gm.TotalBorrowerAmount)
	}

	// floor((minLenderRate + maxBorrowerRate) / 2), exact integer division.
	gm.EffectiveRate.Add(minLenderRate, maxBorrowerRate)
	gm.EffectiveRate.Quo(gm.EffectiveRate, two)

	// Earliest maturity shared by both sides. The feasibility filter
	// guarantees the intersection is non-empty.
	var common []int64
	for m := range lenderMaturities {
		if _, ok := borrowerMaturities[m]; ok {
			common = append(common, m)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })
	gm.Maturity = common[0]

	switch cmp {
	case 0:
		gm.Kind = FullMatch
	case 1:
		gm.Kind = PartialLender
	default:
		gm.Kind = PartialBorrower
	}
	return gm
}

// overallKind folds group classifications into the result-level one: NONE
// when nothing matched, FULL_MATCH when every matched group matched fully,
// PARTIAL_BOTH when both partial kinds occur, otherwise the single partial
// kind present.
func overallKind(groups []GroupMatch) FeasibilityType {
	var sawFull, sawLender, sawBorrower bool
	for _, gm := range groups {
		switch gm.Kind {
		case FullMatch:
			sawFull = true
		case PartialLender:
			sawLender = true
		case PartialBorrower:
			sawBorrower = true
		}
	}
	switch {
	case sawLender && sawBorrower:
		return PartialBoth
	case sawLender:
		return PartialLender
	case sawBorrower:
		return PartialBorrower
	case sawFull:
		return FullMatch
	default:
		return MatchNone
	}
}
