package core

import (
	"math/big"
	"testing"
)

func lender(id uint64, amount, rate int64, maturity int64) Order {
	return Order{ID: id, Side: SideLender, Amount: big.NewInt(amount), Rate: big.NewInt(rate), Maturity: maturity}
}

func borrower(id uint64, amount, rate int64, maturity int64) Order {
	return Order{ID: id, Side: SideBorrower, Amount: big.NewInt(amount), Rate: big.NewInt(rate), Maturity: maturity}
}

func ordersOfSize(n int) []Order {
	orders := make([]Order, n)
	for i := range orders {
		side := SideLender
		if i%2 == 1 {
			side = SideBorrower
		}
		orders[i] = Order{ID: uint64(i + 1), Side: side, Amount: big.NewInt(1000), Rate: big.NewInt(500), Maturity: 1}
	}
	return orders
}

func TestPartitions_BellNumbers(t *testing.T) {
	// Bell(n) for n = 0..7.
	bell := []int{1, 1, 2, 5, 15, 52, 203, 877}

	for n := 0; n <= 7; n++ {
		count := 0
		for range Partitions(ordersOfSize(n)) {
			count++
		}
		want := bell[n]
		if n == 0 {
			want = 0 // empty batch yields no partitions
		}
		if count != want {
			t.Errorf("n=%d: got %d partitions, want %d", n, count, want)
		}
	}
}

func TestPartitions_AreTrueSetPartitions(t *testing.T) {
	orders := ordersOfSize(5)
	seen := make(map[string]struct{})

	for p := range Partitions(orders) {
		ids := make(map[uint64]int)
		for _, g := range p {
			if len(g) == 0 {
				t.Fatal("empty group in partition")
			}
			for _, o := range g {
				ids[o.ID]++
			}
		}
		if len(ids) != len(orders) {
			t.Fatalf("partition covers %d orders, want %d", len(ids), len(orders))
		}
		for id, n := range ids {
			if n != 1 {
				t.Fatalf("order %d appears %d times in one partition", id, n)
			}
		}
		sig := p.signature()
		if _, dup := seen[sig]; dup {
			t.Fatalf("duplicate partition %q", sig)
		}
		seen[sig] = struct{}{}
	}
}

func TestPartitions_SingleOrder(t *testing.T) {
	var got []Partition
	for p := range Partitions(ordersOfSize(1)) {
		got = append(got, p)
	}
	if len(got) != 1 || len(got[0]) != 1 || len(got[0][0]) != 1 {
		t.Fatalf("n=1 must yield exactly one singleton partition, got %v", got)
	}
}

func TestPartitions_CoarsestFirst(t *testing.T) {
	// The all-in-one group must be the first partition yielded; equal
	// scores resolve first-seen, so a merged group has to beat its own
	// refinements to the selector.
	for n := 2; n <= 6; n++ {
		for p := range Partitions(ordersOfSize(n)) {
			if len(p) != 1 || len(p[0]) != n {
				t.Fatalf("n=%d: first partition %q, want single group of %d", n, p.signature(), n)
			}
			break
		}
	}
}

func TestPartitions_Restartable(t *testing.T) {
	seq := Partitions(ordersOfSize(4))
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != second || first != 15 {
		t.Fatalf("sequence not restartable: first=%d second=%d want 15", first, second)
	}
}

func TestPartitions_EarlyStop(t *testing.T) {
	n := 0
	for range Partitions(ordersOfSize(6)) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early break consumed %d partitions, want 3", n)
	}
}
