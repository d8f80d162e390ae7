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

// DepositOrInit moves amount from the depositor into vault custody and adds
// it to the depositor's position, creating the position on first deposit.
// Every call is a new deposit; there is no deduplication.
func (e *Engine) DepositOrInit(ctx context.Context, vaultCount uint64, depositor common.Address, amount uint64) (v model.Vault, p model.UserPosition, err error) {
	started := time.Now()
	defer func() { e.observe(opDeposit, started, err) }()

	now := e.now()
	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		var err error
		v, err = loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		if !v.Accepting(now) {
			return fmt.Errorf("%w: now %d outside [%d, %d]", ErrDepositWindowClosed, now, v.StartDate, v.EndDate)
		}
		if amount == 0 || amount < v.MinAmount {
			return fmt.Errorf("%w: %d < %d", ErrBelowMinimum, amount, v.MinAmount)
		}
		collected, err := addAmount(v.AmountCollected, amount)
		if err != nil {
			return err
		}
		if collected > v.VaultCapacity {
			return fmt.Errorf("%w: %d + %d > %d", ErrCapacityExceeded, v.AmountCollected, amount, v.VaultCapacity)
		}

		var ok bool
		p, ok, err = tx.LoadPosition(ctx, vaultCount, depositor)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if !ok {
			p = model.UserPosition{VaultCount: vaultCount, Owner: depositor}
			if v.OpenPositions, err = addAmount(v.OpenPositions, 1); err != nil {
				return err
			}
		}
		if p.Amount, err = addAmount(p.Amount, amount); err != nil {
			return err
		}

		if err := tx.Transfer(ctx, v.BaseMint, depositor, custody.VaultAddress(vaultCount), amount); err != nil {
			return fmt.Errorf("transfer deposit: %w", err)
		}

		v.AmountCollected = collected
		if err := tx.SavePosition(ctx, p); err != nil {
			return fmt.Errorf("save position: %w", err)
		}
		if err := tx.SaveVault(ctx, v); err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Vault{}, model.UserPosition{}, err
	}

	e.metrics.AddAmount(opDeposit, amount)
	e.logger.Info("deposit",
		zap.Uint64("vault_count", vaultCount),
		zap.String("depositor", depositor.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint64("position", p.Amount),
		zap.Uint64("amount_collected", v.AmountCollected),
	)
	e.emit(e.event(model.EventDeposit, vaultCount, depositor, amount, now))
	return v, p, nil
}
