package vault

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is the basis point scale: yieldBps/BpsDenominator is the
	// yield fraction.
	BpsDenominator = 10_000
	// MaxYieldBps caps the yield at 100%.
	MaxYieldBps = 10_000
)

var bpsDenominator = uint256.NewInt(BpsDenominator)

// Payout returns amount + floor(amount*yieldBps/10000).
func Payout(amount uint64, yieldBps uint16) (uint64, error) {
	total := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(yieldBps)))
	total.Div(total, bpsDenominator)
	total.Add(total, uint256.NewInt(amount))
	if !total.IsUint64() {
		return 0, ErrOverflow
	}
	return total.Uint64(), nil
}

// RequiredReserve is the total owed to depositors of a vault once every
// position has redeemed: collected principal plus yield.
func RequiredReserve(amountCollected uint64, yieldBps uint16) (uint64, error) {
	return Payout(amountCollected, yieldBps)
}

// Shortfall returns required - custodyBalance - amountRedeemed. A negative result
// is a surplus.
func Shortfall(required, custodyBalance, amountRedeemed uint64) *big.Int {
	out := new(big.Int).SetUint64(required)
	out.Sub(out, new(big.Int).SetUint64(custodyBalance))
	out.Sub(out, new(big.Int).SetUint64(amountRedeemed))
	return out
}

func addAmount(a, b uint64) (uint64, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}
