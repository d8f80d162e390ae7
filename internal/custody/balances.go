package custody

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Balances is a plain balance table. It is not safe for concurrent use;
// callers serialize access.
type Balances map[Account]uint64

// Entry is the flattened form of a single balance.
type Entry struct {
	Mint   common.Address `json:"mint"`
	Owner  common.Address `json:"owner"`
	Amount uint64         `json:"amount"`
}

// Credit adds amount to the account.
func (b Balances) Credit(acct Account, amount uint64) error {
	cur := b[acct]
	next := cur + amount
	if next < cur {
		return fmt.Errorf("credit %s/%s: %w", acct.Mint.Hex(), acct.Owner.Hex(), ErrBalanceOverflow)
	}
	b[acct] = next
	return nil
}

// Debit subtracts amount from the account.
func (b Balances) Debit(acct Account, amount uint64) error {
	cur := b[acct]
	if cur < amount {
		return fmt.Errorf("debit %s/%s: have %d, need %d: %w", acct.Mint.Hex(), acct.Owner.Hex(), cur, amount, ErrInsufficientBalance)
	}
	b[acct] = cur - amount
	return nil
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Entries flattens the table, ordered by mint then owner.
func (b Balances) Entries() []Entry {
	out := make([]Entry, 0, len(b))
	for acct, amount := range b {
		out = append(out, Entry{Mint: acct.Mint, Owner: acct.Owner, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mint != out[j].Mint {
			return out[i].Mint.Hex() < out[j].Mint.Hex()
		}
		return out[i].Owner.Hex() < out[j].Owner.Hex()
	})
	return out
}

// BalancesFromEntries rebuilds a table from its flattened form.
func BalancesFromEntries(entries []Entry) Balances {
	out := make(Balances, len(entries))
	for _, e := range entries {
		out[Account{Mint: e.Mint, Owner: e.Owner}] = e.Amount
	}
	return out
}
