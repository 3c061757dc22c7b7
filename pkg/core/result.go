package core

import (
	"fmt"
	"math/big"
)

// FeasibilityType classifies how a group (or a whole result) matched.
type FeasibilityType uint8

const (
	MatchNone       FeasibilityType = iota // nothing matched
	FullMatch                              // lender and borrower totals equal
	PartialLender                          // lender total larger, lenders partially filled
	PartialBorrower                        // borrower total larger, borrowers partially filled
	PartialBoth                            // result-level only: both partial kinds present
)

func (t FeasibilityType) String() string {
	switch t {
	case MatchNone:
		return "NONE"
	case FullMatch:
		return "FULL_MATCH"
	case PartialLender:
		return "PARTIAL_LENDER"
	case PartialBorrower:
		return "PARTIAL_BORROWER"
	case PartialBoth:
		return "PARTIAL_BOTH"
	default:
		return fmt.Sprintf("feasibility(%d)", uint8(t))
	}
}

// RateScale is the fixed-point denominator for AverageRate and
// MatchingEfficiency: 4 fractional digits, so a stored value of 5464285
// reads as 546.4285 basis points. Division truncates toward zero.
const RateScale = 10_000

// GroupMatch is the evaluated form of one matching group.
type GroupMatch struct {
	Orders Group

	TotalLenderAmount   *big.Int
	TotalBorrowerAmount *big.Int
	// MatchedAmount = min(TotalLenderAmount, TotalBorrowerAmount);
	// zero for singleton (passthrough) groups.
	MatchedAmount *big.Int
	// EffectiveRate is the single clearing rate for every transfer in the
	// group: floor((minLenderRate + maxBorrowerRate) / 2), basis points.
	EffectiveRate *big.Int
	// Maturity is the earliest timestamp common to both sides.
	Maturity int64
	Kind     FeasibilityType
}

// MatchResult aggregates one feasible partition's evaluation. Results are
// created fresh per batch and carry no state between batches.
type MatchResult struct {
	Groups []GroupMatch

	TotalLenderAmount       *big.Int
	TotalBorrowerAmount     *big.Int
	TotalMatchedAmount      *big.Int
	UnmatchedLenderAmount   *big.Int
	UnmatchedBorrowerAmount *big.Int

	// AverageRate is the volume-weighted mean clearing rate in basis
	// points scaled by RateScale; zero when nothing matched.
	AverageRate *big.Int
	// MatchingEfficiency = 2 * matched / (lender total + borrower total),
	// scaled by RateScale; 1.0 is stored as RateScale.
	MatchingEfficiency *big.Int
	// RateSpread is zero by construction: lender and borrower sides clear
	// at the same rate. Kept explicit so downstream consumers need not
	// special-case its absence.
	RateSpread *big.Int

	Feasible bool // TotalMatchedAmount > 0
	Kind     FeasibilityType
}

// EmptyResult is the typed "no feasible partition" outcome for a set of
// orders: everything unmatched, zero transfers. A normal result, not an
// error; the caller retries the same orders in a later batch.
func EmptyResult(orders []Order) *MatchResult {
	res := &MatchResult{
		TotalLenderAmount:   new(big.Int),
		TotalBorrowerAmount: new(big.Int),
		TotalMatchedAmount:  new(big.Int),
		AverageRate:         new(big.Int),
		MatchingEfficiency:  new(big.Int),
		RateSpread:          new(big.Int),
		Kind:                MatchNone,
	}
	for _, o := range orders {
		if o.Side == SideLender {
			res.TotalLenderAmount.Add(res.TotalLenderAmount, o.Amount)
		} else {
			res.TotalBorrowerAmount.Add(res.TotalBorrowerAmount, o.Amount)
		}
		// Singleton passthrough groups so per-order diagnostics still flow.
		res.Groups = append(res.Groups, GroupMatch{
			Orders:              Group{o},
			TotalLenderAmount:   new(big.Int),
			TotalBorrowerAmount: new(big.Int),
			MatchedAmount:       new(big.Int),
			EffectiveRate:       new(big.Int),
			Kind:                MatchNone,
		})
	}
	res.UnmatchedLenderAmount = new(big.Int).Set(res.TotalLenderAmount)
	res.UnmatchedBorrowerAmount = new(big.Int).Set(res.TotalBorrowerAmount)
	return res
}
