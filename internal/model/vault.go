package model

import "github.com/ethereum/go-ethereum/common"

// Vault is the per-pool record holding configuration and running totals.
type Vault struct {
	VaultCount        uint64         `json:"vault_count"`
	Creator           common.Address `json:"creator"`
	Authority         common.Address `json:"authority"`
	BaseMint          common.Address `json:"base_mint"`
	YieldBps          uint16         `json:"yield_bps"`
	VaultCapacity     uint64         `json:"vault_capacity"`
	MinAmount         uint64         `json:"min_amount"`
	StartDate         uint64         `json:"start_date"`
	EndDate           uint64         `json:"end_date"`
	WithdrawTimeframe uint64         `json:"withdraw_timeframe"`
	AmountCollected   uint64         `json:"amount_collected"`
	AmountWithdrawn   uint64         `json:"amount_withdrawn"`
	AmountRedeemed    uint64         `json:"amount_redeemed"`
	OpenPositions     uint64         `json:"open_positions"`
}

// WithdrawOpensAt returns the first timestamp at which depositors may redeem.
// The second return value is false if the sum overflows.
func (v Vault) WithdrawOpensAt() (uint64, bool) {
	opens := v.EndDate + v.WithdrawTimeframe
	if opens < v.EndDate {
		return 0, false
	}
	return opens, true
}

// Accepting reports whether now falls inside the inclusive deposit window.
func (v Vault) Accepting(now uint64) bool {
	return now >= v.StartDate && now <= v.EndDate
}
