package intake

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/D9J9V/UniCow/pkg/core"
	"github.com/D9J9V/UniCow/pkg/crypto"
)

func signedOrder(t *testing.T, signer *crypto.Signer, e *crypto.EIP712Signer,
	side uint8, amount, rate int64, maturity int64, nonce uint64) *SignedOrder {
	t.Helper()
	typed := &crypto.OrderEIP712{
		Side:     side,
		Amount:   big.NewInt(amount),
		Rate:     big.NewInt(rate),
		Maturity: big.NewInt(maturity),
		Expiry:   big.NewInt(0),
		Nonce:    new(big.Int).SetUint64(nonce),
		Sender:   signer.Address(),
	}
	sig, err := e.SignOrder(signer, typed)
	if err != nil {
		t.Fatalf("sign order: %v", err)
	}
	return &SignedOrder{
		Side:      side,
		Amount:    typed.Amount.String(),
		Rate:      typed.Rate.String(),
		Maturity:  maturity,
		Expiry:    0,
		Nonce:     typed.Nonce.String(),
		Sender:    signer.Address().Hex(),
		Signature: fmt.Sprintf("0x%x", sig),
	}
}

func TestPool_SubmitAndDrain(t *testing.T) {
	e := crypto.NewEIP712Signer(crypto.DefaultDomain())
	pool := NewPool(e)
	signer, _ := crypto.GenerateKey()

	id1, err := pool.Submit(signedOrder(t, signer, e, 1, 10_000, 500, 100, 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id2, err := pool.Submit(signedOrder(t, signer, e, 2, 10_000, 600, 100, 2))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id1 == id2 {
		t.Fatal("ids must be unique")
	}
	if pool.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", pool.Len())
	}

	snapshot := pool.Drain()
	if len(snapshot) != 2 {
		t.Fatalf("drained %d orders, want 2", len(snapshot))
	}
	if pool.Len() != 0 {
		t.Fatal("pool must be empty after drain")
	}
	if snapshot[0].Side != core.SideLender || snapshot[1].Side != core.SideBorrower {
		t.Fatalf("sides = %s/%s", snapshot[0].Side, snapshot[1].Side)
	}
}

func TestPool_RejectsBadSignature(t *testing.T) {
	e := crypto.NewEIP712Signer(crypto.DefaultDomain())
	pool := NewPool(e)
	signer, _ := crypto.GenerateKey()

	so := signedOrder(t, signer, e, 1, 10_000, 500, 100, 1)
	so.Amount = "10001" // tamper after signing

	if _, err := pool.Submit(so); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if pool.Len() != 0 {
		t.Fatal("rejected order landed in pool")
	}
}

func TestPool_RejectsReplayedNonce(t *testing.T) {
	e := crypto.NewEIP712Signer(crypto.DefaultDomain())
	pool := NewPool(e)
	signer, _ := crypto.GenerateKey()

	if _, err := pool.Submit(signedOrder(t, signer, e, 1, 10_000, 500, 100, 7)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := pool.Submit(signedOrder(t, signer, e, 1, 20_000, 550, 100, 7))
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput on replayed nonce", err)
	}

	// A different sender may use the same nonce value.
	other, _ := crypto.GenerateKey()
	if _, err := pool.Submit(signedOrder(t, other, e, 1, 10_000, 500, 100, 7)); err != nil {
		t.Fatalf("other sender same nonce: %v", err)
	}
}

func TestPool_RejectsMalformedFields(t *testing.T) {
	e := crypto.NewEIP712Signer(crypto.DefaultDomain())
	pool := NewPool(e)
	signer, _ := crypto.GenerateKey()

	tests := []struct {
		name   string
		mutate func(*SignedOrder)
	}{
		{"bad amount", func(so *SignedOrder) { so.Amount = "not-a-number" }},
		{"bad rate", func(so *SignedOrder) { so.Rate = "1.5" }},
		{"bad nonce", func(so *SignedOrder) { so.Nonce = "-1" }},
		{"bad sender", func(so *SignedOrder) { so.Sender = "0xzz" }},
		{"bad side", func(so *SignedOrder) { so.Side = 3 }},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			so := signedOrder(t, signer, e, 1, 10_000, 500, 100, uint64(100+i))
			tt.mutate(so)
			if _, err := pool.Submit(so); !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPool_RequeueDropsExpired(t *testing.T) {
	e := crypto.NewEIP712Signer(crypto.DefaultDomain())
	pool := NewPool(e)

	live := core.Order{ID: 1, Side: core.SideLender, Amount: big.NewInt(100),
		Rate: big.NewInt(500), Maturity: 100}
	expired := core.Order{ID: 2, Side: core.SideBorrower, Amount: big.NewInt(100),
		Rate: big.NewInt(600), Maturity: 100, Expiry: 1}

	pool.Requeue([]core.Order{live, expired})
	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (expired order dropped)", pool.Len())
	}
	snapshot := pool.Drain()
	if snapshot[0].ID != 1 {
		t.Fatalf("requeued order id = %d, want 1", snapshot[0].ID)
	}
}

func TestSignedOrder_SerializeRoundTrip(t *testing.T) {
	so := &SignedOrder{Side: 2, Amount: "12345", Rate: "550", Maturity: 99,
		Nonce: "3", Sender: "0x0000000000000000000000000000000000000001", Signature: "0xabcd"}
	data, err := so.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if *back != *so {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, so)
	}
}
