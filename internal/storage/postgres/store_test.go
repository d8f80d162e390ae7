package postgres

import (
	"context"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

func TestParseAmount(t *testing.T) {
	v, err := parseAmount(formatAmount(math.MaxUint64))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, err = parseAmount("18446744073709551616")
	require.Error(t, err)

	_, err = parseAmount("-1")
	require.Error(t, err)
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), Config{}, nil)
	require.Error(t, err)
}

// openTestStore connects to VAULT_TEST_PG_DSN after applying migrations.
// Each test runs against a fresh vault id range to stay independent.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("VAULT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("VAULT_TEST_PG_DSN not set")
	}
	require.NoError(t, Migrate(dsn, nil))

	s, err := NewStore(context.Background(), Config{DSN: dsn, MaxRetries: 1, RetryBackoff: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func uniqueAddress(t *testing.T, tag byte) common.Address {
	t.Helper()
	suffix := strconv.FormatInt(time.Now().UnixNano(), 16)
	return common.BytesToAddress(append([]byte{tag}, []byte(suffix)...))
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := uint64(time.Now().UnixNano())
	owner := uniqueAddress(t, 0x01)
	mint := uniqueAddress(t, 0x02)
	vault := model.Vault{
		VaultCount:        id,
		Creator:           owner,
		Authority:         owner,
		BaseMint:          mint,
		YieldBps:          8000,
		VaultCapacity:     math.MaxUint64,
		MinAmount:         10,
		StartDate:         100,
		EndDate:           200,
		WithdrawTimeframe: 300,
		AmountCollected:   50,
		OpenPositions:     1,
	}

	err := s.Update(ctx, storage.VaultLock(id), func(tx storage.Tx) error {
		if err := tx.SaveVault(ctx, vault); err != nil {
			return err
		}
		return tx.SavePosition(ctx, model.UserPosition{VaultCount: id, Owner: owner, Amount: 50})
	})
	require.NoError(t, err)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, ok, err := tx.LoadVault(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, vault, got)

		pos, ok, err := tx.LoadPosition(ctx, id, owner)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint64(50), pos.Amount)

		require.ErrorIs(t, tx.SaveVault(ctx, vault), storage.ErrReadOnly)
		return nil
	}))

	require.NoError(t, s.Update(ctx, storage.VaultLock(id), func(tx storage.Tx) error {
		if err := tx.DeletePosition(ctx, id, owner); err != nil {
			return err
		}
		return tx.DeleteVault(ctx, id)
	}))
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		_, ok, err := tx.LoadVault(ctx, id)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestStoreCustody(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mint := uniqueAddress(t, 0x03)
	alice := uniqueAddress(t, 0x04)
	bob := uniqueAddress(t, 0x05)

	require.NoError(t, s.Update(ctx, storage.CustodyLock(alice), func(tx storage.Tx) error {
		if err := tx.Open(ctx, mint, bob); err != nil {
			return err
		}
		if err := tx.Mint(ctx, mint, alice, 100); err != nil {
			return err
		}
		return tx.Transfer(ctx, mint, alice, bob, 40)
	}))

	err := s.Update(ctx, storage.CustodyLock(alice), func(tx storage.Tx) error {
		return tx.Transfer(ctx, mint, alice, bob, 61)
	})
	require.ErrorIs(t, err, custody.ErrInsufficientBalance)

	err = s.Update(ctx, storage.CustodyLock(bob), func(tx storage.Tx) error {
		return tx.Mint(ctx, mint, bob, math.MaxUint64)
	})
	require.ErrorIs(t, err, custody.ErrBalanceOverflow)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		a, err := tx.BalanceOf(ctx, mint, alice)
		require.NoError(t, err)
		b, err := tx.BalanceOf(ctx, mint, bob)
		require.NoError(t, err)
		require.Equal(t, uint64(60), a)
		require.Equal(t, uint64(40), b)
		return nil
	}))
}
