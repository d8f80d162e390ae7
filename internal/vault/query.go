package vault

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// Vault returns the vault at vaultCount.
func (e *Engine) Vault(ctx context.Context, vaultCount uint64) (model.Vault, error) {
	var v model.Vault
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		v, err = loadVault(ctx, tx, vaultCount)
		return err
	})
	return v, err
}

// Position returns the owner's position in the vault.
func (e *Engine) Position(ctx context.Context, vaultCount uint64, owner common.Address) (model.UserPosition, error) {
	var p model.UserPosition
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var (
			ok  bool
			err error
		)
		p, ok, err = tx.LoadPosition(ctx, vaultCount, owner)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if !ok {
			return ErrPositionNotFound
		}
		return nil
	})
	return p, err
}

// CustodyBalance returns what the vault's custody account currently holds.
func (e *Engine) CustodyBalance(ctx context.Context, vaultCount uint64) (uint64, error) {
	var balance uint64
	err := e.store.View(ctx, func(tx storage.Tx) error {
		v, err := loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		balance, err = tx.BalanceOf(ctx, v.BaseMint, custody.VaultAddress(vaultCount))
		return err
	})
	return balance, err
}

// VaultStatus is a vault together with its custody balance.
type VaultStatus struct {
	Vault          model.Vault `json:"vault"`
	CustodyBalance uint64      `json:"custody_balance"`
}

// Vaults returns every vault that has not been closed, in id order.
func (e *Engine) Vaults(ctx context.Context) ([]VaultStatus, error) {
	var out []VaultStatus
	err := e.store.View(ctx, func(tx storage.Tx) error {
		g, ok, err := tx.LoadGlobal(ctx)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		if !ok {
			return ErrNotInitialized
		}
		for id := uint64(0); id < g.VaultCounter; id++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok, err := tx.LoadVault(ctx, id)
			if err != nil {
				return fmt.Errorf("load vault %d: %w", id, err)
			}
			if !ok {
				continue
			}
			balance, err := tx.BalanceOf(ctx, v.BaseMint, custody.VaultAddress(id))
			if err != nil {
				return err
			}
			out = append(out, VaultStatus{Vault: v, CustodyBalance: balance})
		}
		return nil
	})
	return out, err
}
