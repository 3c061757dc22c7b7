package core

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer is one settlement instruction: move Amount from Lender to
// Borrower at the group's clearing rate and maturity. The full list for a
// batch is intended to be submitted as one atomic settlement action.
type Transfer struct {
	LenderID   uint64
	BorrowerID uint64
	Lender     common.Address
	Borrower   common.Address
	Amount     *big.Int
	Rate       *big.Int // basis points
	Maturity   int64
}

// OrderOutcome is the per-order diagnostic attached to a batch result.
// Informational only; settlement correctness never depends on it.
type OrderOutcome struct {
	Matched *big.Int // principal actually allocated, zero if none
	Rate    *big.Int // clearing rate of the order's group, nil if unmatched
	Reason  string   // human-readable explanation when not fully matched
}

// ComputeTransfers converts a winning result into pairwise transfers plus a
// diagnostic per order id.
//
// Within each matched group, every borrower's share is
// floor(borrowerPrincipal × matched / totalBorrower) and every lender's
// floor(lenderPrincipal × matched / totalLender). Lenders are walked in a
// fixed order — rate ascending, then id — so cheap capital is consumed
// first; borrowers are walked by id. Residual dust from the floor divisions
// is not reallocated: the truncation loss is bounded below one smallest
// unit per lender–borrower pairing per group.
func ComputeTransfers(res *MatchResult) ([]Transfer, map[uint64]OrderOutcome) {
	var transfers []Transfer
	diags := make(map[uint64]OrderOutcome)

	for _, gm := range res.Groups {
		switch gm.Kind {
		case FullMatch, PartialLender, PartialBorrower:
			transfers = append(transfers, allocateGroup(gm, diags)...)
		default:
			for _, o := range gm.Orders {
				diags[o.ID] = OrderOutcome{
					Matched: new(big.Int),
					Reason:  "unmatched: no feasible counterparty this round",
				}
			}
		}
	}
	return transfers, diags
}

func allocateGroup(gm GroupMatch, diags map[uint64]OrderOutcome) []Transfer {
	var lenders, borrowers []Order
	for _, o := range gm.Orders {
		if o.Side == SideLender {
			lenders = append(lenders, o)
		} else {
			borrowers = append(borrowers, o)
		}
	}
	sort.Slice(lenders, func(i, j int) bool {
		if c := lenders[i].Rate.Cmp(lenders[j].Rate); c != 0 {
			return c < 0
		}
		return lenders[i].ID < lenders[j].ID
	})
	sort.Slice(borrowers, func(i, j int) bool { return borrowers[i].ID < borrowers[j].ID })

	// Per-lender remaining allocation: floor(principal × matched / totalL).
	lenderRest := make([]*big.Int, len(lenders))
	for i, l := range lenders {
		share := new(big.Int).Mul(l.Amount, gm.MatchedAmount)
		share.Quo(share, gm.TotalLenderAmount)
		lenderRest[i] = share
	}

	allocated := make(map[uint64]*big.Int, len(gm.Orders))
	for _, o := range gm.Orders {
		allocated[o.ID] = new(big.Int)
	}

	var transfers []Transfer
	for _, b := range borrowers {
		rest := new(big.Int).Mul(b.Amount, gm.MatchedAmount)
		rest.Quo(rest, gm.TotalBorrowerAmount)

		for i, l := range lenders {
			if rest.Sign() == 0 {
				break
			}
			take := new(big.Int).Set(rest)
			if lenderRest[i].Cmp(take) < 0 {
				take.Set(lenderRest[i])
			}
			if take.Sign() == 0 {
				continue
			}
			transfers = append(transfers, Transfer{
				LenderID:   l.ID,
				BorrowerID: b.ID,
				Lender:     l.Sender,
				Borrower:   b.Sender,
				Amount:     take,
				Rate:       gm.EffectiveRate,
				Maturity:   gm.Maturity,
			})
			rest.Sub(rest, take)
			lenderRest[i].Sub(lenderRest[i], take)
			allocated[l.ID].Add(allocated[l.ID], take)
			allocated[b.ID].Add(allocated[b.ID], take)
		}
	}

	for _, o := range gm.Orders {
		got := allocated[o.ID]
		out := OrderOutcome{Matched: got, Rate: gm.EffectiveRate}
		if got.Cmp(o.Amount) < 0 {
			out.Reason = "partially filled: counterparty volume exhausted"
		}
		if got.Sign() == 0 {
			out.Rate = nil
			out.Reason = "unmatched: proportional share rounded to zero"
		}
		diags[o.ID] = out
	}
	return transfers
}
