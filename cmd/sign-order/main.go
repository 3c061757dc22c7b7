// sign-order is a developer utility: it signs a capital request with a
// local key and prints (or submits) the JSON body the operator accepts.
package main

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/D9J9V/UniCow/pkg/crypto"
	"github.com/D9J9V/UniCow/pkg/intake"
)

func main() {
	app := &cli.App{
		Name:  "sign-order",
		Usage: "Sign a lending/borrowing order and optionally submit it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "side",
				Value: "lender",
				Usage: "order side: lender or borrower",
			},
			&cli.StringFlag{
				Name:     "amount",
				Required: true,
				Usage:    "principal in smallest unit (decimal string)",
			},
			&cli.StringFlag{
				Name:     "rate",
				Required: true,
				Usage:    "rate bound in basis points (lender min / borrower max)",
			},
			&cli.Int64Flag{
				Name:     "maturity",
				Required: true,
				Usage:    "maturity as unix seconds; orders match only on exact equality",
			},
			&cli.Int64Flag{
				Name:  "expiry",
				Usage: "expiry as unix seconds, 0 = never",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "hex private key; a fresh key is generated when omitted",
			},
			&cli.Int64Flag{
				Name:  "chain-id",
				Value: 31337,
				Usage: "EIP-712 domain chain id",
			},
			&cli.StringFlag{
				Name:  "submit",
				Usage: "operator base URL; when set, POSTs the order to /api/v1/orders",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	var side uint8
	switch c.String("side") {
	case "lender":
		side = 1
	case "borrower":
		side = 2
	default:
		return fmt.Errorf("side must be lender or borrower, got %q", c.String("side"))
	}

	amount, ok := new(big.Int).SetString(c.String("amount"), 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", c.String("amount"))
	}
	rate, ok := new(big.Int).SetString(c.String("rate"), 10)
	if !ok {
		return fmt.Errorf("invalid rate %q", c.String("rate"))
	}

	var signer *crypto.Signer
	var err error
	if key := c.String("key"); key != "" {
		signer, err = crypto.FromPrivateKeyHex(key)
	} else {
		signer, err = crypto.GenerateKey()
		if err == nil {
			fmt.Fprintf(os.Stderr, "generated key %s (keep secret)\n", signer.PrivateKeyHex())
		}
	}
	if err != nil {
		return err
	}

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return err
	}

	domain := crypto.DefaultDomain()
	domain.ChainID = big.NewInt(c.Int64("chain-id"))
	e := crypto.NewEIP712Signer(domain)

	typed := &crypto.OrderEIP712{
		Side:     side,
		Amount:   amount,
		Rate:     rate,
		Maturity: big.NewInt(c.Int64("maturity")),
		Expiry:   big.NewInt(c.Int64("expiry")),
		Nonce:    new(big.Int).SetUint64(nonce),
		Sender:   signer.Address(),
	}
	sig, err := e.SignOrder(signer, typed)
	if err != nil {
		return fmt.Errorf("sign order: %w", err)
	}

	so := &intake.SignedOrder{
		Side:      side,
		Amount:    amount.String(),
		Rate:      rate.String(),
		Maturity:  c.Int64("maturity"),
		Expiry:    c.Int64("expiry"),
		Nonce:     fmt.Sprintf("%d", nonce),
		Sender:    signer.Address().Hex(),
		Signature: fmt.Sprintf("0x%x", sig),
	}
	body, err := so.Serialize()
	if err != nil {
		return err
	}
	fmt.Println(string(body))

	if base := c.String("submit"); base != "" {
		resp, err := http.Post(base+"/api/v1/orders", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		defer resp.Body.Close()
		reply, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Status, reply)
	}
	return nil
}
