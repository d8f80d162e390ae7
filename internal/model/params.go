package model

import "github.com/ethereum/go-ethereum/common"

// VaultParams carries the configuration for creating or updating a vault.
// Nil fields are left unchanged on update; creation requires all of them
// except Authority, which defaults to the caller.
type VaultParams struct {
	BaseMint          *common.Address `json:"base_mint,omitempty"`
	Authority         *common.Address `json:"authority,omitempty"`
	YieldBps          *uint16         `json:"yield_bps,omitempty"`
	VaultCapacity     *uint64         `json:"vault_capacity,omitempty"`
	MinAmount         *uint64         `json:"min_amount,omitempty"`
	StartDate         *uint64         `json:"start_date,omitempty"`
	EndDate           *uint64         `json:"end_date,omitempty"`
	WithdrawTimeframe *uint64         `json:"withdraw_timeframe,omitempty"`
}

// Missing lists the names of fields a vault creation requires but params lacks.
func (p VaultParams) Missing() []string {
	var missing []string
	if p.BaseMint == nil {
		missing = append(missing, "base_mint")
	}
	if p.YieldBps == nil {
		missing = append(missing, "yield_bps")
	}
	if p.VaultCapacity == nil {
		missing = append(missing, "vault_capacity")
	}
	if p.MinAmount == nil {
		missing = append(missing, "min_amount")
	}
	if p.StartDate == nil {
		missing = append(missing, "start_date")
	}
	if p.EndDate == nil {
		missing = append(missing, "end_date")
	}
	if p.WithdrawTimeframe == nil {
		missing = append(missing, "withdraw_timeframe")
	}
	return missing
}

// ApplyTo copies every provided field onto v.
func (p VaultParams) ApplyTo(v *Vault) {
	if p.BaseMint != nil {
		v.BaseMint = *p.BaseMint
	}
	if p.Authority != nil {
		v.Authority = *p.Authority
	}
	if p.YieldBps != nil {
		v.YieldBps = *p.YieldBps
	}
	if p.VaultCapacity != nil {
		v.VaultCapacity = *p.VaultCapacity
	}
	if p.MinAmount != nil {
		v.MinAmount = *p.MinAmount
	}
	if p.StartDate != nil {
		v.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		v.EndDate = *p.EndDate
	}
	if p.WithdrawTimeframe != nil {
		v.WithdrawTimeframe = *p.WithdrawTimeframe
	}
}
