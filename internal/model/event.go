package model

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Event types emitted by the vault engine.
const (
	EventGlobalInitialized = "global_initialized"
	EventVaultCreated      = "vault_created"
	EventVaultUpdated      = "vault_updated"
	EventDeposit           = "deposit"
	EventAuthorityWithdraw = "authority_withdraw"
	EventUserWithdraw      = "user_withdraw"
	EventAuthorityUpdated  = "authority_updated"
	EventVaultClosed       = "vault_closed"
	EventFunded            = "funded"
	EventTopup             = "topup"
)

// VaultEvent is the journal representation of a committed engine operation.
type VaultEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	VaultCount uint64          `json:"vault_count"`
	Actor      common.Address  `json:"actor"`
	Target     *common.Address `json:"target,omitempty"`
	Amount     uint64          `json:"amount"`
	Timestamp  uint64          `json:"timestamp"`
	Vault      *Vault          `json:"vault,omitempty"`
}

// MarshalJSON ensures VaultEvent is encoded with stable field names.
func (e VaultEvent) MarshalJSON() ([]byte, error) {
	type Alias VaultEvent
	return json.Marshal(Alias(e))
}

// UnmarshalJSON decodes a VaultEvent from JSON.
func (e *VaultEvent) UnmarshalJSON(data []byte) error {
	type Alias VaultEvent
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = VaultEvent(a)
	return nil
}
