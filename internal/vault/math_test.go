package vault

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayout(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
		bps    uint16
		want   uint64
	}{
		{name: "eighty percent", amount: 1000, bps: 8000, want: 1800},
		{name: "zero yield", amount: 1000, bps: 0, want: 1000},
		{name: "full yield", amount: 1000, bps: 10000, want: 2000},
		{name: "floors fractional yield", amount: 3, bps: 3333, want: 3},
		{name: "floors larger amount", amount: 1001, bps: 8000, want: 1801},
		{name: "zero amount", amount: 0, bps: 8000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Payout(tt.amount, tt.bps)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPayoutOverflow(t *testing.T) {
	got, err := Payout(math.MaxUint64, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), got)

	_, err = Payout(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestShortfall(t *testing.T) {
	required, err := RequiredReserve(2000, 8000)
	require.NoError(t, err)
	require.Equal(t, uint64(3600), required)

	require.Equal(t, int64(3600), Shortfall(required, 0, 0).Int64())
	require.Equal(t, int64(0), Shortfall(required, 3600, 0).Int64())
	require.Equal(t, int64(-400), Shortfall(required, 4000, 0).Int64())
	require.Equal(t, int64(0), Shortfall(required, 1800, 1800).Int64())
	require.Equal(t, int64(math.MinInt64+3600), Shortfall(3600, math.MaxInt64, 1).Int64())
}

func TestAddAmountOverflow(t *testing.T) {
	sum, err := addAmount(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), sum)

	_, err = addAmount(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)
}
