package custody

import (
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	testMint  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testOwner = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestVaultAddressDeterministic(t *testing.T) {
	require.Equal(t, VaultAddress(7), VaultAddress(7))
	require.NotEqual(t, VaultAddress(7), VaultAddress(8))
	require.NotEqual(t, common.Address{}, VaultAddress(0))

	acct := VaultAccount(testMint, 7)
	require.Equal(t, testMint, acct.Mint)
	require.Equal(t, VaultAddress(7), acct.Owner)
}

func TestBalancesCreditDebit(t *testing.T) {
	b := Balances{}
	acct := Account{Mint: testMint, Owner: testOwner}

	require.NoError(t, b.Credit(acct, 100))
	require.NoError(t, b.Debit(acct, 40))
	require.Equal(t, uint64(60), b[acct])

	err := b.Debit(acct, 61)
	require.True(t, errors.Is(err, ErrInsufficientBalance))
	require.Equal(t, uint64(60), b[acct])

	b[acct] = math.MaxUint64
	require.ErrorIs(t, b.Credit(acct, 1), ErrBalanceOverflow)
}

func TestBalancesEntriesRoundTrip(t *testing.T) {
	b := Balances{
		{Mint: testMint, Owner: testOwner}:       5,
		{Mint: testMint, Owner: VaultAddress(1)}: 9,
	}
	entries := b.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, b, BalancesFromEntries(entries))

	clone := b.Clone()
	clone[Account{Mint: testMint, Owner: testOwner}] = 0
	require.Equal(t, uint64(5), b[Account{Mint: testMint, Owner: testOwner}])
}
