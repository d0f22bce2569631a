// Package signer executes CosmWasm contract messages by delegating signing and
// broadcasting to the xiond CLI, then waits for the transaction to be included
// in a block.
package signer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Coin is an amount of a single denomination in base units.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func (c Coin) String() string {
	return c.Amount + c.Denom
}

// Display renders micro-denominated coins in whole units, e.g. "0.000001 XION".
// Other denominations are rendered as-is.
func (c Coin) Display() string {
	if len(c.Denom) < 2 || !strings.HasPrefix(c.Denom, "u") {
		return c.String()
	}
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return c.String()
	}
	return amount.Shift(-6).String() + " " + strings.ToUpper(c.Denom[1:])
}

// FormatCoins joins coins the way the Cosmos CLI expects them: "1uxion,5uatom".
func FormatCoins(coins []Coin) string {
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

// Fee is the fee paid for a transaction. When Granter is set, the fee is
// deducted from the granter's fee allowance instead of the sender.
type Fee struct {
	Amount  []Coin `json:"amount"`
	Gas     string `json:"gas"`
	Granter string `json:"granter,omitempty"`
}

// ExecuteRequest describes one contract execution.
type ExecuteRequest struct {
	Sender   string
	Contract string
	Msg      any
	Fee      Fee
	Memo     string
	Funds    []Coin
}

// Result is the outcome of an included transaction.
type Result struct {
	TransactionHash string `json:"transactionHash"`
	Height          int64  `json:"height"`
	GasWanted       int64  `json:"gasWanted"`
	GasUsed         int64  `json:"gasUsed"`
}

// Executor signs and broadcasts contract executions.
type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) (Result, error)
}

// TxError is a transaction rejected by the chain, either at CheckTx or during
// block execution.
type TxError struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s failed with code %d (%s): %s", e.TxHash, e.Code, e.Codespace, e.RawLog)
}
