package core

import (
	"errors"
	"math/big"
	"testing"
)

func resultWith(matched, efficiency, avgRate int64) *MatchResult {
	return &MatchResult{
		TotalMatchedAmount: big.NewInt(matched),
		MatchingEfficiency: big.NewInt(efficiency),
		AverageRate:        big.NewInt(avgRate),
		Feasible:           matched > 0,
	}
}

func TestSelectBest_Comparator(t *testing.T) {
	tests := []struct {
		name       string
		candidates []*MatchResult
		wantIdx    int
	}{
		{
			name: "higher matched amount wins",
			candidates: []*MatchResult{
				resultWith(100, 10_000, 500),
				resultWith(200, 5_000, 900),
			},
			wantIdx: 1,
		},
		{
			name: "matched tie: higher efficiency wins",
			candidates: []*MatchResult{
				resultWith(100, 6_000, 500),
				resultWith(100, 8_000, 500),
			},
			wantIdx: 1,
		},
		{
			name: "matched and efficiency tie: lower average rate wins",
			candidates: []*MatchResult{
				resultWith(100, 8_000, 550),
				resultWith(100, 8_000, 500),
			},
			wantIdx: 1,
		},
		{
			name: "full tie: first seen wins",
			candidates: []*MatchResult{
				resultWith(100, 8_000, 500),
				resultWith(100, 8_000, 500),
			},
			wantIdx: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectBest(tt.candidates)
			if err != nil {
				t.Fatalf("SelectBest: %v", err)
			}
			if got != tt.candidates[tt.wantIdx] {
				t.Errorf("selected wrong candidate")
			}
		})
	}
}

func TestSelectBest_EmptyIsContractViolation(t *testing.T) {
	_, err := SelectBest(nil)
	if !errors.Is(err, ErrEmptyResultSet) {
		t.Fatalf("err = %v, want ErrEmptyResultSet", err)
	}
}

func TestSelectBest_Deterministic(t *testing.T) {
	candidates := []*MatchResult{
		resultWith(300, 7_000, 480),
		resultWith(300, 7_000, 480),
		resultWith(300, 9_000, 520),
		resultWith(250, 10_000, 400),
	}
	first, err := SelectBest(candidates)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		again, err := SelectBest(candidates)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run %d selected a different winner", i)
		}
	}
}
