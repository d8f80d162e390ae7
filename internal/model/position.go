package model

import "github.com/ethereum/go-ethereum/common"

// UserPosition is a depositor's accumulated principal in one vault.
type UserPosition struct {
	VaultCount uint64         `json:"vault_count"`
	Owner      common.Address `json:"owner"`
	Amount     uint64         `json:"amount"`
}

// PositionKey identifies a UserPosition.
type PositionKey struct {
	VaultCount uint64
	Owner      common.Address
}

// Key returns the lookup key of the position.
func (p UserPosition) Key() PositionKey {
	return PositionKey{VaultCount: p.VaultCount, Owner: p.Owner}
}
