package core

import "testing"

func TestPartitionFeasible(t *testing.T) {
	tests := []struct {
		name string
		p    Partition
		want bool
	}{
		{
			name: "two-sided overlapping rates same maturity",
			p:    Partition{Group{lender(1, 1000, 500, 10), borrower(2, 1000, 600, 10)}},
			want: true,
		},
		{
			name: "one-sided group blocks",
			p:    Partition{Group{lender(1, 1000, 500, 10), lender(2, 1000, 600, 10)}},
			want: false,
		},
		{
			name: "lender asks more than any borrower pays",
			p:    Partition{Group{lender(1, 1000, 1000, 10), borrower(2, 1000, 500, 10)}},
			want: false,
		},
		{
			name: "disjoint maturities block even with overlapping rates",
			p:    Partition{Group{lender(1, 1000, 400, 10), borrower(2, 1000, 600, 20)}},
			want: false,
		},
		{
			name: "one shared maturity among several is enough",
			p: Partition{Group{
				lender(1, 1000, 400, 10),
				lender(2, 1000, 450, 20),
				borrower(3, 2000, 600, 20),
			}},
			want: true,
		},
		{
			name: "singletons never block",
			p:    Partition{Group{lender(1, 1000, 900, 10)}, Group{borrower(2, 1000, 100, 20)}},
			want: true,
		},
		{
			name: "one bad group discards the whole partition",
			p: Partition{
				Group{lender(1, 1000, 400, 10), borrower(2, 1000, 600, 10)},
				Group{lender(3, 1000, 800, 10), borrower(4, 1000, 300, 10)},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Feasible(); got != tt.want {
				t.Errorf("Feasible() = %v, want %v", got, tt.want)
			}
		})
	}
}
