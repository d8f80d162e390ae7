// Package custody defines the token custody the vault engine moves funds
// through and an in-process balance table used by the local stores.
package custody

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the account balance.
	ErrInsufficientBalance = errors.New("custody: insufficient balance")
	// ErrBalanceOverflow is returned when a credit would exceed the uint64 range.
	ErrBalanceOverflow = errors.New("custody: balance overflow")
)

// Ledger holds balances per (mint, owner) pair.
type Ledger interface {
	BalanceOf(ctx context.Context, mint, owner common.Address) (uint64, error)
	Transfer(ctx context.Context, mint, from, to common.Address, amount uint64) error
	// Open makes sure an account exists for (mint, owner), creating it with a
	// zero balance if needed.
	Open(ctx context.Context, mint, owner common.Address) error
	// Mint credits new tokens to an account. Only used by funding tooling.
	Mint(ctx context.Context, mint, owner common.Address, amount uint64) error
}

// Account identifies a custody balance.
type Account struct {
	Mint  common.Address `json:"mint"`
	Owner common.Address `json:"owner"`
}
