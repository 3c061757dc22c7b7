package core

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxBatchOrders caps batch size before enumeration. Bell(10) is
// 115975 partitions, the practical ceiling for a synchronous pass.
const DefaultMaxBatchOrders = 10

// Engine runs the batch pipeline over one immutable snapshot of orders.
// It holds no state between batches: every call works only on its inputs.
type Engine struct {
	log      *zap.SugaredLogger
	maxBatch int
}

// NewEngine creates an engine with the given admission cap; maxBatch <= 0
// falls back to DefaultMaxBatchOrders.
func NewEngine(log *zap.SugaredLogger, maxBatch int) *Engine {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchOrders
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{log: log, maxBatch: maxBatch}
}

// BatchOutcome is one batch's complete output: the winning result per
// maturity, the flattened transfer list, and a diagnostic per order id.
type BatchOutcome struct {
	Results     map[int64]*MatchResult
	Transfers   []Transfer
	Diagnostics map[uint64]OrderOutcome
}

// MatchMaturityGroup runs the pure pipeline over orders sharing one
// maturity group: enumerate partitions, filter, evaluate, select. Zero
// feasible partitions is a normal outcome and returns the typed empty
// result with zero matched volume.
func MatchMaturityGroup(orders []Order) (*MatchResult, error) {
	var candidates []*MatchResult
	for p := range Partitions(orders) {
		if !p.Feasible() {
			continue
		}
		if res := Evaluate(p); res.Feasible {
			candidates = append(candidates, res)
		}
	}
	if len(candidates) == 0 {
		return EmptyResult(orders), nil
	}
	return SelectBest(candidates)
}

// MatchBatch validates and matches one closed batch. Orders are grouped by
// exact maturity and the maturity groups matched independently in parallel;
// orders never match across maturities. Oversized batches fail fast with
// ErrInvalidInput — admission control is the caller's contract, not a
// recoverable condition here.
func (e *Engine) MatchBatch(orders []Order) (*BatchOutcome, error) {
	if len(orders) > e.maxBatch {
		return nil, fmt.Errorf("batch of %d orders exceeds cap %d: %w",
			len(orders), e.maxBatch, ErrInvalidInput)
	}
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return nil, err
		}
	}

	byMaturity := make(map[int64][]Order)
	for _, o := range orders {
		byMaturity[o.Maturity] = append(byMaturity[o.Maturity], o)
	}

	outcome := &BatchOutcome{
		Results:     make(map[int64]*MatchResult, len(byMaturity)),
		Diagnostics: make(map[uint64]OrderOutcome, len(orders)),
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for maturity, group := range byMaturity {
		wg.Add(1)
		go func(maturity int64, group []Order) {
			defer wg.Done()
			res, err := MatchMaturityGroup(group)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			outcome.Results[maturity] = res
		}(maturity, group)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	// Transfers in deterministic maturity order; independence between
	// maturity groups means ordering is presentation, not semantics.
	maturities := make([]int64, 0, len(outcome.Results))
	for m := range outcome.Results {
		maturities = append(maturities, m)
	}
	sort.Slice(maturities, func(i, j int) bool { return maturities[i] < maturities[j] })

	for _, m := range maturities {
		res := outcome.Results[m]
		transfers, diags := ComputeTransfers(res)
		outcome.Transfers = append(outcome.Transfers, transfers...)
		for id, d := range diags {
			outcome.Diagnostics[id] = d
		}
		e.log.Infow("maturity_matched",
			"maturity", m,
			"orders", groupOrderCount(res),
			"matched", res.TotalMatchedAmount.String(),
			"kind", res.Kind.String(),
			"transfers", len(transfers),
		)
	}
	return outcome, nil
}

func groupOrderCount(res *MatchResult) int {
	n := 0
	for _, g := range res.Groups {
		n += len(g.Orders)
	}
	return n
}
