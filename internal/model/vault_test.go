package model

import (
	"math"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestVaultAcceptingInclusive(t *testing.T) {
	v := Vault{StartDate: 100, EndDate: 200}
	cases := map[uint64]bool{99: false, 100: true, 150: true, 200: true, 201: false}
	for now, want := range cases {
		if got := v.Accepting(now); got != want {
			t.Fatalf("Accepting(%d) = %v, want %v", now, got, want)
		}
	}
}

func TestVaultWithdrawOpensAt(t *testing.T) {
	v := Vault{EndDate: 200, WithdrawTimeframe: 50}
	opens, ok := v.WithdrawOpensAt()
	if !ok || opens != 250 {
		t.Fatalf("unexpected opens: %d %v", opens, ok)
	}

	v.EndDate = math.MaxUint64
	if _, ok := v.WithdrawOpensAt(); ok {
		t.Fatalf("expected overflow to be reported")
	}
}

func TestVaultParamsMissing(t *testing.T) {
	if got := (VaultParams{}).Missing(); len(got) != 7 {
		t.Fatalf("expected 7 missing fields, got %v", got)
	}

	mint := common.HexToAddress("0x3333333333333333333333333333333333333333")
	bps := uint16(500)
	capacity, min, start, end, tf := uint64(10), uint64(1), uint64(2), uint64(3), uint64(4)
	full := VaultParams{
		BaseMint:          &mint,
		YieldBps:          &bps,
		VaultCapacity:     &capacity,
		MinAmount:         &min,
		StartDate:         &start,
		EndDate:           &end,
		WithdrawTimeframe: &tf,
	}
	if got := full.Missing(); len(got) != 0 {
		t.Fatalf("expected no missing fields, got %v", got)
	}
}

func TestVaultParamsApplyToKeepsUnsetFields(t *testing.T) {
	v := Vault{VaultCount: 1, YieldBps: 100, MinAmount: 5, EndDate: 90}
	capacity := uint64(1000)
	VaultParams{VaultCapacity: &capacity}.ApplyTo(&v)

	want := Vault{VaultCount: 1, YieldBps: 100, MinAmount: 5, EndDate: 90, VaultCapacity: 1000}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("apply mismatch: %+v != %+v", v, want)
	}
}
