// Package intake admits signed capital requests into the current batch
// window. It is the validity boundary the matching core relies on: every
// order handed to the engine has already been signature-verified, validated
// and de-duplicated here.
package intake

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/D9J9V/UniCow/pkg/core"
	"github.com/D9J9V/UniCow/pkg/crypto"
)

// SignedOrder is the wire form of one submission. Big integers travel as
// decimal strings, matching the wallet-side typed data.
type SignedOrder struct {
	Side      uint8  `json:"side"`     // 1 = lender, 2 = borrower
	Amount    string `json:"amount"`   // principal, decimal string
	Rate      string `json:"rate"`     // basis points, decimal string
	Maturity  int64  `json:"maturity"` // unix seconds
	Expiry    int64  `json:"expiry"`   // unix seconds, 0 = never
	Nonce     string `json:"nonce"`    // decimal string, replay protection
	Sender    string `json:"sender"`   // 0x address
	Signature string `json:"signature"`
}

// Serialize renders the submission as JSON.
func (so *SignedOrder) Serialize() ([]byte, error) { return json.Marshal(so) }

// Parse decodes a JSON submission.
func Parse(data []byte) (*SignedOrder, error) {
	var so SignedOrder
	if err := json.Unmarshal(data, &so); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &so, nil
}

// Pool collects verified orders for the open batch window. Drain closes
// the window: the snapshot it returns is immutable as far as the pipeline
// is concerned, and the pool starts collecting for the next window.
type Pool struct {
	mu       sync.Mutex
	verifier *crypto.EIP712Signer
	nextID   uint64
	pending  []core.Order
	nonces   map[common.Address]map[uint64]struct{}
	now      func() time.Time
}

// NewPool creates a pool verifying submissions under the given domain.
func NewPool(verifier *crypto.EIP712Signer) *Pool {
	return &Pool{
		verifier: verifier,
		nextID:   1,
		nonces:   make(map[common.Address]map[uint64]struct{}),
		now:      time.Now,
	}
}

// Submit verifies and admits one signed order, returning its assigned id.
// Rejections wrap core.ErrInvalidInput so callers can classify them.
func (p *Pool) Submit(so *SignedOrder) (uint64, error) {
	order, nonce, err := p.toOrder(so)
	if err != nil {
		return 0, err
	}
	if err := order.Validate(); err != nil {
		return 0, err
	}
	if order.Expired(p.now().Unix()) {
		return 0, fmt.Errorf("order expired at %d: %w", order.Expiry, core.ErrInvalidInput)
	}

	sig := common.FromHex(so.Signature)
	typed := &crypto.OrderEIP712{
		Side:     so.Side,
		Amount:   order.Amount,
		Rate:     order.Rate,
		Maturity: big.NewInt(order.Maturity),
		Expiry:   big.NewInt(order.Expiry),
		Nonce:    new(big.Int).SetUint64(nonce),
		Sender:   order.Sender,
	}
	ok, err := p.verifier.VerifyOrderSignature(typed, sig)
	if err != nil {
		return 0, fmt.Errorf("verify signature: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("signature does not match sender %s: %w",
			order.Sender.Hex(), core.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := p.nonces[order.Sender]
	if seen == nil {
		seen = make(map[uint64]struct{})
		p.nonces[order.Sender] = seen
	}
	if _, dup := seen[nonce]; dup {
		return 0, fmt.Errorf("nonce %d already used by %s: %w",
			nonce, order.Sender.Hex(), core.ErrInvalidInput)
	}
	seen[nonce] = struct{}{}

	order.ID = p.nextID
	p.nextID++
	p.pending = append(p.pending, order)
	return order.ID, nil
}

// Drain closes the current window and returns its snapshot.
func (p *Pool) Drain() []core.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := p.pending
	p.pending = nil
	return snapshot
}

// Requeue returns unmatched orders to the pool for the next window,
// dropping any that have expired in the meantime. IDs are kept: an order's
// identity is stable across retries.
func (p *Pool) Requeue(orders []core.Order) {
	now := p.now().Unix()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range orders {
		if o.Expired(now) {
			continue
		}
		p.pending = append(p.pending, o)
	}
}

// Len reports the number of orders waiting in the open window.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pool) toOrder(so *SignedOrder) (core.Order, uint64, error) {
	var order core.Order
	amount, ok := new(big.Int).SetString(so.Amount, 10)
	if !ok {
		return order, 0, fmt.Errorf("invalid amount %q: %w", so.Amount, core.ErrInvalidInput)
	}
	rate, ok := new(big.Int).SetString(so.Rate, 10)
	if !ok {
		return order, 0, fmt.Errorf("invalid rate %q: %w", so.Rate, core.ErrInvalidInput)
	}
	nonceBig, ok := new(big.Int).SetString(so.Nonce, 10)
	if !ok || !nonceBig.IsUint64() {
		return order, 0, fmt.Errorf("invalid nonce %q: %w", so.Nonce, core.ErrInvalidInput)
	}
	if !common.IsHexAddress(so.Sender) {
		return order, 0, fmt.Errorf("invalid sender %q: %w", so.Sender, core.ErrInvalidInput)
	}
	order = core.Order{
		Side:     core.Side(so.Side),
		Amount:   amount,
		Rate:     rate,
		Maturity: so.Maturity,
		Expiry:   so.Expiry,
		Sender:   common.HexToAddress(so.Sender),
	}
	return order, nonceBig.Uint64(), nil
}
