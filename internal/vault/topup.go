package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// Topup moves amount of the vault's base mint from the sender into vault
// custody. Any holder may top up; the authority uses it to return withdrawn
// capital plus yield before redemptions open. It returns the custody balance
// after the transfer.
func (e *Engine) Topup(ctx context.Context, vaultCount uint64, from common.Address, amount uint64) (balance uint64, err error) {
	started := time.Now()
	defer func() { e.observe(opTopup, started, err) }()

	if amount == 0 {
		return 0, fmt.Errorf("%w: topup amount must be positive", ErrInvalidAmount)
	}

	vaultAddr := custody.VaultAddress(vaultCount)
	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		v, err := loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, v.BaseMint, from, vaultAddr, amount); err != nil {
			return fmt.Errorf("transfer topup: %w", err)
		}
		balance, err = tx.BalanceOf(ctx, v.BaseMint, vaultAddr)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.metrics.AddAmount(opTopup, amount)
	e.logger.Info("vault topped up",
		zap.Uint64("vault_count", vaultCount),
		zap.String("from", from.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint64("custody_balance", balance),
	)
	e.emit(e.event(model.EventTopup, vaultCount, from, amount, e.now()))
	return balance, nil
}
