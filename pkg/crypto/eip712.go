package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP712Domain is the typed-data domain separator; it scopes signatures to
// one chain and verifying contract so they cannot be replayed elsewhere.
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// DefaultDomain is the off-chain signing domain for the local devnet.
func DefaultDomain() EIP712Domain {
	return EIP712Domain{
		Name:              "UniCow",
		Version:           "1",
		ChainID:           big.NewInt(31337),
		VerifyingContract: common.Address{},
	}
}

// OrderEIP712 is the typed data a requester signs in their wallet: one
// capital request with side, principal, rate bound and maturity.
type OrderEIP712 struct {
	Side     uint8    // 1 = lender, 2 = borrower
	Amount   *big.Int // principal in smallest unit
	Rate     *big.Int // basis points; lender minimum / borrower maximum
	Maturity *big.Int // unix seconds
	Expiry   *big.Int // unix seconds, 0 = never
	Nonce    *big.Int // replay protection
	Sender   common.Address
}

// EIP712Signer hashes and verifies orders under one domain.
type EIP712Signer struct {
	domain EIP712Domain
}

func NewEIP712Signer(domain EIP712Domain) *EIP712Signer {
	return &EIP712Signer{domain: domain}
}

// HashOrder computes the EIP-712 digest of an order:
// keccak256("\x19\x01" || domainSeparator || structHash).
func (e *EIP712Signer) HashOrder(order *OrderEIP712) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Order": []apitypes.Type{
				{Name: "side", Type: "uint8"},
				{Name: "amount", Type: "uint256"},
				{Name: "rate", Type: "uint256"},
				{Name: "maturity", Type: "uint256"},
				{Name: "expiry", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "sender", Type: "address"},
			},
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              e.domain.Name,
			Version:           e.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(e.domain.ChainID),
			VerifyingContract: e.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"side":     fmt.Sprintf("%d", order.Side),
			"amount":   order.Amount.String(),
			"rate":     order.Rate.String(),
			"maturity": order.Maturity.String(),
			"expiry":   order.Expiry.String(),
			"nonce":    order.Nonce.String(),
			"sender":   order.Sender.Hex(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	structHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hash order: %w", err)
	}

	raw := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(structHash)))
	return crypto.Keccak256Hash(raw).Bytes(), nil
}

// SignOrder signs an order's digest with the given key.
func (e *EIP712Signer) SignOrder(signer *Signer, order *OrderEIP712) ([]byte, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return nil, err
	}
	return signer.Sign(hash)
}

// VerifyOrderSignature reports whether signature was produced by the
// order's claimed sender.
func (e *EIP712Signer) VerifyOrderSignature(order *OrderEIP712, signature []byte) (bool, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return false, err
	}
	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		return false, fmt.Errorf("recover signer: %w", err)
	}
	return recovered == order.Sender, nil
}
