package core

import (
	"iter"
	"sort"
	"strconv"
	"strings"
)

// Group is a non-empty subset of a batch evaluated jointly. Size 1 means
// the order passes through unmatched; size > 1 is a candidate for mutual
// matching at a shared clearing rate.
type Group []Order

// Partition divides a batch into disjoint, non-empty groups whose union is
// the whole batch: a true set partition.
type Partition []Group

// Partitions lazily enumerates every set partition of the given orders,
// deduplicated by canonical signature. The sequence is restartable: each
// range starts the enumeration from scratch.
//
// Enumeration starts from the coarsest partition (every order in one
// group); the selector's first-seen tie-break relies on a merged group
// surfacing before any of its refinements, so equal-scoring candidates
// resolve to the one that fills both sides proportionally.
//
// For n orders the sequence has exactly Bell(n) elements, so cost grows
// super-exponentially with n. Bounding n is the caller's admission-control
// responsibility (see Engine.MatchBatch); nothing here caps it.
//
// Yielded partitions share group backing arrays with later yields; callers
// must treat them as read-only, which the rest of the pipeline does.
func Partitions(orders []Order) iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		if len(orders) == 0 {
			return
		}
		// The recursive construction can revisit the same partition through
		// different insertion paths, so keep a seen-set of signatures.
		seen := make(map[string]struct{})
		rawPartitions(orders, func(p Partition) bool {
			sig := p.signature()
			if _, dup := seen[sig]; dup {
				return true
			}
			seen[sig] = struct{}{}
			return yield(p)
		})
	}
}

// rawPartitions recursively generates partitions of orders: take every
// partition of orders[1:], then insert orders[0] into each existing group
// in turn, and finally prepend it as a new singleton group. Inserting
// before splitting keeps coarser partitions ahead of their refinements.
// Returns false when the consumer stopped early.
func rawPartitions(orders []Order, yield func(Partition) bool) bool {
	first := orders[0]
	if len(orders) == 1 {
		return yield(Partition{Group{first}})
	}
	return rawPartitions(orders[1:], func(sub Partition) bool {
		// first inserted into each existing group.
		for i := range sub {
			extended := make(Partition, len(sub))
			copy(extended, sub)
			grown := make(Group, 0, len(sub[i])+1)
			grown = append(grown, first)
			grown = append(grown, sub[i]...)
			extended[i] = grown
			if !yield(extended) {
				return false
			}
		}
		// first as its own singleton group.
		withSingleton := make(Partition, 0, len(sub)+1)
		withSingleton = append(withSingleton, Group{first})
		withSingleton = append(withSingleton, sub...)
		return yield(withSingleton)
	})
}

// signature builds the canonical form of a partition: each group's order
// ids sorted ascending, groups sorted by their first id, serialized as
// "1,3|2|4,5". Two partitions are equal iff their signatures are equal.
func (p Partition) signature() string {
	groups := make([][]uint64, len(p))
	for i, g := range p {
		ids := make([]uint64, len(g))
		for j, o := range g {
			ids[j] = o.ID
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		groups[i] = ids
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })

	var sb strings.Builder
	for i, ids := range groups {
		if i > 0 {
			sb.WriteByte('|')
		}
		for j, id := range ids {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatUint(id, 10))
		}
	}
	return sb.String()
}
