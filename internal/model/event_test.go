package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestVaultEventJSONRoundTrip(t *testing.T) {
	target := common.HexToAddress("0x2222222222222222222222222222222222222222")
	original := VaultEvent{
		ID:         "4f7c1b64-8f3a-4c52-9b1c-0b9c6a8b7f01",
		Type:       EventUserWithdraw,
		VaultCount: 3,
		Actor:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Target:     &target,
		Amount:     1800,
		Timestamp:  1700000000,
		Vault: &Vault{
			VaultCount:      3,
			YieldBps:        8000,
			AmountCollected: 1000,
			AmountRedeemed:  1800,
		},
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded VaultEvent
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}
