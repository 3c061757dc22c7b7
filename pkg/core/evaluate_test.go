package core

import (
	"math/big"
	"testing"
)

func TestEvaluate_SingleGroupFullMatch(t *testing.T) {
	p := Partition{Group{
		lender(1, 10_000, 400, 10),
		borrower(2, 10_000, 600, 10),
	}}
	res := Evaluate(p)

	if !res.Feasible {
		t.Fatal("expected feasible result")
	}
	if res.Kind != FullMatch {
		t.Fatalf("kind = %s, want FULL_MATCH", res.Kind)
	}
	if res.TotalMatchedAmount.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("matched = %s, want 10000", res.TotalMatchedAmount)
	}
	// effectiveRate = floor((400+600)/2) = 500
	if res.Groups[0].EffectiveRate.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("effective rate = %s, want 500", res.Groups[0].EffectiveRate)
	}
	// Average rate 500.0000 (scaled by 1e4), efficiency 1.0000.
	if res.AverageRate.Cmp(big.NewInt(500*RateScale)) != 0 {
		t.Fatalf("average rate = %s, want %d", res.AverageRate, 500*RateScale)
	}
	if res.MatchingEfficiency.Cmp(big.NewInt(RateScale)) != 0 {
		t.Fatalf("efficiency = %s, want %d", res.MatchingEfficiency, RateScale)
	}
	if res.RateSpread.Sign() != 0 {
		t.Fatalf("rate spread = %s, want 0", res.RateSpread)
	}
}

func TestEvaluate_EffectiveRateFloors(t *testing.T) {
	p := Partition{Group{
		lender(1, 1000, 401, 10),
		borrower(2, 1000, 600, 10),
	}}
	res := Evaluate(p)
	// floor((401+600)/2) = floor(500.5) = 500
	if res.Groups[0].EffectiveRate.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("effective rate = %s, want 500", res.Groups[0].EffectiveRate)
	}
}

func TestEvaluate_PartialLender(t *testing.T) {
	p := Partition{Group{
		lender(1, 20_000, 500, 10),
		lender(2, 10_000, 500, 10),
		borrower(3, 20_000, 600, 10),
	}}
	res := Evaluate(p)

	if res.Kind != PartialLender {
		t.Fatalf("kind = %s, want PARTIAL_LENDER", res.Kind)
	}
	if res.TotalMatchedAmount.Cmp(big.NewInt(20_000)) != 0 {
		t.Fatalf("matched = %s, want 20000", res.TotalMatchedAmount)
	}
	if res.UnmatchedLenderAmount.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("unmatched lender = %s, want 10000", res.UnmatchedLenderAmount)
	}
	if res.UnmatchedBorrowerAmount.Sign() != 0 {
		t.Fatalf("unmatched borrower = %s, want 0", res.UnmatchedBorrowerAmount)
	}
	// matchedAmount never exceeds the smaller side.
	g := res.Groups[0]
	if g.MatchedAmount.Cmp(g.TotalLenderAmount) > 0 || g.MatchedAmount.Cmp(g.TotalBorrowerAmount) > 0 {
		t.Fatal("matched amount exceeds a side total")
	}
}

func TestEvaluate_SingletonsUnmatched(t *testing.T) {
	p := Partition{
		Group{lender(1, 5000, 400, 10)},
		Group{borrower(2, 7000, 600, 10)},
	}
	res := Evaluate(p)

	if res.Feasible {
		t.Fatal("all-singleton partition must not be feasible")
	}
	if res.Kind != MatchNone {
		t.Fatalf("kind = %s, want NONE", res.Kind)
	}
	if res.UnmatchedLenderAmount.Cmp(big.NewInt(5000)) != 0 ||
		res.UnmatchedBorrowerAmount.Cmp(big.NewInt(7000)) != 0 {
		t.Fatalf("unmatched = %s/%s, want 5000/7000",
			res.UnmatchedLenderAmount, res.UnmatchedBorrowerAmount)
	}
	if res.AverageRate.Sign() != 0 || res.MatchingEfficiency.Sign() != 0 {
		t.Fatal("average rate and efficiency must be zero when nothing matched")
	}
}

func TestEvaluate_EarliestCommonMaturity(t *testing.T) {
	p := Partition{Group{
		lender(1, 1000, 400, 30),
		lender(2, 1000, 400, 10),
		borrower(3, 2000, 600, 30),
		borrower(4, 500, 600, 10),
	}}
	res := Evaluate(p)
	// Common maturities {10, 30}; earliest wins.
	if res.Groups[0].Maturity != 10 {
		t.Fatalf("group maturity = %d, want 10", res.Groups[0].Maturity)
	}
}

func TestEvaluate_PartialBoth(t *testing.T) {
	p := Partition{
		Group{lender(1, 20_000, 400, 10), borrower(2, 10_000, 600, 10)},
		Group{lender(3, 5_000, 400, 20), borrower(4, 9_000, 600, 20)},
	}
	res := Evaluate(p)
	if res.Kind != PartialBoth {
		t.Fatalf("kind = %s, want PARTIAL_BOTH", res.Kind)
	}
}

func TestEvaluate_AverageRateTruncatesTowardZero(t *testing.T) {
	// Groups: 15000 @ 475 and 20000 @ 600.
	// avg = 19,125,000 / 35,000 = 546.428571... -> 546.4285 scaled.
	p := Partition{
		Group{lender(1, 15_000, 400, 10), borrower(2, 15_000, 550, 10)},
		Group{lender(3, 20_000, 600, 10), borrower(4, 20_000, 600, 10)},
	}
	res := Evaluate(p)
	want := big.NewInt(5_464_285)
	if res.AverageRate.Cmp(want) != 0 {
		t.Fatalf("average rate = %s, want %s", res.AverageRate, want)
	}
}
