package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// AuthorityWithdraw moves amount out of vault custody to the authority. It is
// not time gated.
func (e *Engine) AuthorityWithdraw(ctx context.Context, vaultCount uint64, amount uint64, caller common.Address) (v model.Vault, err error) {
	started := time.Now()
	defer func() { e.observe(opAuthorityWithdraw, started, err) }()

	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		var err error
		v, err = loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		if v.Authority != caller {
			return ErrUnauthorized
		}
		if amount == 0 {
			return fmt.Errorf("%w: withdraw amount must be positive", ErrInvalidAmount)
		}
		withdrawn, err := addAmount(v.AmountWithdrawn, amount)
		if err != nil {
			return err
		}
		if err := transferFromCustody(ctx, tx, v, caller, amount); err != nil {
			return err
		}
		v.AmountWithdrawn = withdrawn
		if err := tx.SaveVault(ctx, v); err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Vault{}, err
	}

	e.metrics.AddAmount(opAuthorityWithdraw, amount)
	e.logger.Info("authority withdraw",
		zap.Uint64("vault_count", vaultCount),
		zap.String("authority", caller.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint64("amount_withdrawn", v.AmountWithdrawn),
	)
	e.emit(e.event(model.EventAuthorityWithdraw, vaultCount, caller, amount, e.now()))
	return v, nil
}

// ComputeTopupAmount returns how far vault custody is short of covering every
// outstanding obligation: principal plus yield on everything collected, less
// what custody holds and what has already been redeemed. A negative value is
// a surplus. Nothing is moved; UserWithdraw enforces the balance.
func (e *Engine) ComputeTopupAmount(ctx context.Context, vaultCount uint64) (*big.Int, error) {
	var topup *big.Int
	err := e.store.View(ctx, func(tx storage.Tx) error {
		v, err := loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		balance, err := tx.BalanceOf(ctx, v.BaseMint, custody.VaultAddress(vaultCount))
		if err != nil {
			return fmt.Errorf("custody balance: %w", err)
		}
		required, err := RequiredReserve(v.AmountCollected, v.YieldBps)
		if err != nil {
			return err
		}
		topup = Shortfall(required, balance, v.AmountRedeemed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topup, nil
}

// UserWithdraw redeems the owner's whole position, principal plus yield, once
// the withdraw timeframe after the end date has passed. The position is
// deleted.
func (e *Engine) UserWithdraw(ctx context.Context, vaultCount uint64, owner common.Address) (v model.Vault, payout uint64, err error) {
	started := time.Now()
	defer func() { e.observe(opUserWithdraw, started, err) }()

	now := e.now()
	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		var err error
		v, err = loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		opens, ok := v.WithdrawOpensAt()
		if !ok {
			return ErrOverflow
		}
		if now < opens {
			return fmt.Errorf("%w: opens at %d, now %d", ErrWithdrawTooEarly, opens, now)
		}

		p, ok, err := tx.LoadPosition(ctx, vaultCount, owner)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if !ok || p.Amount == 0 {
			return ErrPositionNotFound
		}

		payout, err = Payout(p.Amount, v.YieldBps)
		if err != nil {
			return err
		}
		redeemed, err := addAmount(v.AmountRedeemed, payout)
		if err != nil {
			return err
		}
		if err := transferFromCustody(ctx, tx, v, owner, payout); err != nil {
			return err
		}

		v.AmountRedeemed = redeemed
		if v.OpenPositions > 0 {
			v.OpenPositions--
		}
		if err := tx.DeletePosition(ctx, vaultCount, owner); err != nil {
			return fmt.Errorf("delete position: %w", err)
		}
		if err := tx.SaveVault(ctx, v); err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Vault{}, 0, err
	}

	e.metrics.AddAmount(opUserWithdraw, payout)
	e.logger.Info("user withdraw",
		zap.Uint64("vault_count", vaultCount),
		zap.String("owner", owner.Hex()),
		zap.Uint64("payout", payout),
		zap.Uint64("amount_redeemed", v.AmountRedeemed),
	)
	e.emit(e.event(model.EventUserWithdraw, vaultCount, owner, payout, now))
	return v, payout, nil
}

func transferFromCustody(ctx context.Context, tx storage.Tx, v model.Vault, to common.Address, amount uint64) error {
	err := tx.Transfer(ctx, v.BaseMint, custody.VaultAddress(v.VaultCount), to, amount)
	if err == nil {
		return nil
	}
	if errors.Is(err, custody.ErrInsufficientBalance) {
		return fmt.Errorf("%w: %w", ErrInsufficientVaultBalance, err)
	}
	return fmt.Errorf("transfer from custody: %w", err)
}
