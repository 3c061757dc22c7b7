// Package core implements the batch matching pipeline: partition
// enumeration, feasibility filtering, result evaluation, best-result
// selection and settlement transfer computation.
//
// Everything in this package is a pure function over immutable inputs.
// All amount/rate arithmetic uses *big.Int; no floating point appears
// anywhere in the matching or transfer math, so results are
// bit-reproducible across runs and machines.
package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors. Callers match with errors.Is.
var (
	// ErrInvalidInput marks a malformed or self-contradictory order, or a
	// batch that violates the admission contract (e.g. oversized).
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyResultSet is returned by SelectBest when invoked with no
	// candidates. A caller contract violation, not a "no match" outcome.
	ErrEmptyResultSet = errors.New("empty result set")

	// ErrArithmeticOverflow marks an amount or rate wider than 256 bits.
	// The whole batch is aborted rather than silently truncated.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// Side tags an order as capital supply or capital demand. A two-variant
// tagged type rather than a bool so a third/invalid side is representable
// only as an error.
type Side uint8

const (
	SideLender   Side = 1 // offers principal at a minimum acceptable rate
	SideBorrower Side = 2 // requests principal at a maximum acceptable rate
)

func (s Side) String() string {
	switch s {
	case SideLender:
		return "lender"
	case SideBorrower:
		return "borrower"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the two defined variants.
func (s Side) Valid() bool { return s == SideLender || s == SideBorrower }

// Order is one admitted capital request. Orders are created by the intake
// collaborator once per request and are read-only inside the core: the
// matching pipeline never mutates an Order after admission.
type Order struct {
	ID       uint64
	Side     Side
	Amount   *big.Int // principal in smallest unit, > 0
	Rate     *big.Int // basis points; lender minimum / borrower maximum
	Maturity int64    // unix seconds; orders match only on exact equality
	Sender   common.Address
	Expiry   int64 // unix seconds, 0 = never expires

	// Optional per-order bounds, nil = unset. Carried for the intake layer;
	// the matching math itself reads only Amount and Rate.
	MinAmount *big.Int
	MaxAmount *big.Int
	MinRate   *big.Int
	MaxRate   *big.Int
}

// maxBits mirrors the on-chain uint256 representation: anything wider
// cannot be settled and aborts the batch.
const maxBits = 256

// Validate checks a single order for self-consistency. It distinguishes
// malformed inputs (ErrInvalidInput) from values that are well-formed but
// exceed representable precision (ErrArithmeticOverflow).
func (o *Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order %d: unknown side %d: %w", o.ID, o.Side, ErrInvalidInput)
	}
	if o.Amount == nil || o.Amount.Sign() <= 0 {
		return fmt.Errorf("order %d: amount must be positive: %w", o.ID, ErrInvalidInput)
	}
	if o.Rate == nil || o.Rate.Sign() < 0 {
		return fmt.Errorf("order %d: rate must be non-negative: %w", o.ID, ErrInvalidInput)
	}
	if o.Amount.BitLen() > maxBits {
		return fmt.Errorf("order %d: amount exceeds %d bits: %w", o.ID, maxBits, ErrArithmeticOverflow)
	}
	if o.Rate.BitLen() > maxBits {
		return fmt.Errorf("order %d: rate exceeds %d bits: %w", o.ID, maxBits, ErrArithmeticOverflow)
	}
	if o.MinAmount != nil && o.MaxAmount != nil && o.MinAmount.Cmp(o.MaxAmount) > 0 {
		return fmt.Errorf("order %d: min amount above max amount: %w", o.ID, ErrInvalidInput)
	}
	if o.MinRate != nil && o.MaxRate != nil && o.MinRate.Cmp(o.MaxRate) > 0 {
		return fmt.Errorf("order %d: min rate above max rate: %w", o.ID, ErrInvalidInput)
	}
	return nil
}

// Expired reports whether the order's expiry has passed at the given time.
func (o *Order) Expired(now int64) bool {
	return o.Expiry != 0 && o.Expiry <= now
}
