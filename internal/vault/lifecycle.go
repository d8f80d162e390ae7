package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// InitOrUpdateVault creates the vault at vaultCount, or reconfigures it while
// no funds have been collected.
//
// Creation requires vaultCount to be the registry's next id and every field
// of params except Authority, which defaults to the caller. An update applies
// only the provided fields and must be signed by the current authority.
func (e *Engine) InitOrUpdateVault(ctx context.Context, vaultCount uint64, params model.VaultParams, caller common.Address) (v model.Vault, err error) {
	started := time.Now()
	defer func() { e.observe(opInitOrUpdateVault, started, err) }()

	now := e.now()
	created := false
	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		var (
			exists bool
			err    error
		)
		v, exists, err = tx.LoadVault(ctx, vaultCount)
		if err != nil {
			return fmt.Errorf("load vault: %w", err)
		}

		if !exists {
			g, ok, err := tx.LoadGlobal(ctx)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			if !ok {
				return ErrNotInitialized
			}
			if g.VaultCounter != vaultCount {
				return fmt.Errorf("%w: got %d, next is %d", ErrIncorrectVaultCount, vaultCount, g.VaultCounter)
			}
			if missing := params.Missing(); len(missing) > 0 {
				return fmt.Errorf("%w: %s", ErrMissingParams, strings.Join(missing, ", "))
			}

			v = model.Vault{VaultCount: vaultCount, Creator: caller, Authority: caller}
			params.ApplyTo(&v)
			if err := validateConfig(v, now); err != nil {
				return err
			}
			if _, err := nextVaultID(&g); err != nil {
				return err
			}
			if err := tx.SaveGlobal(ctx, g); err != nil {
				return fmt.Errorf("save registry: %w", err)
			}
			created = true
		} else {
			if v.AmountCollected != 0 {
				return ErrVaultAlreadyActive
			}
			if v.Authority != caller {
				return ErrUnauthorized
			}
			if params.BaseMint != nil && *params.BaseMint != v.BaseMint {
				held, err := tx.BalanceOf(ctx, v.BaseMint, custody.VaultAddress(vaultCount))
				if err != nil {
					return fmt.Errorf("custody balance: %w", err)
				}
				if held > 0 {
					return fmt.Errorf("%w: custody still holds %d of base mint %s", ErrInvalidConfiguration, held, v.BaseMint.Hex())
				}
			}
			params.ApplyTo(&v)
			if err := validateConfig(v, now); err != nil {
				return err
			}
		}

		if err := tx.Open(ctx, v.BaseMint, custody.VaultAddress(vaultCount)); err != nil {
			return fmt.Errorf("open custody account: %w", err)
		}
		if err := tx.SaveVault(ctx, v); err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Vault{}, err
	}

	typ := model.EventVaultUpdated
	if created {
		typ = model.EventVaultCreated
	}
	e.logger.Info("vault configured",
		zap.Uint64("vault_count", vaultCount),
		zap.Bool("created", created),
		zap.String("authority", v.Authority.Hex()),
		zap.String("base_mint", v.BaseMint.Hex()),
		zap.String("custody", custody.VaultAddress(vaultCount).Hex()),
		zap.Uint64("start_date", v.StartDate),
		zap.Uint64("end_date", v.EndDate),
		zap.Uint64("vault_capacity", v.VaultCapacity),
		zap.Uint16("yield_bps", v.YieldBps),
	)
	evt := e.event(typ, vaultCount, caller, 0, now)
	evt.Vault = &v
	e.emit(evt)
	return v, nil
}

func validateConfig(v model.Vault, now uint64) error {
	switch {
	case v.BaseMint == (common.Address{}):
		return fmt.Errorf("%w: base mint is required", ErrInvalidConfiguration)
	case v.Authority == (common.Address{}):
		return fmt.Errorf("%w: authority is required", ErrInvalidConfiguration)
	case v.StartDate <= now:
		return fmt.Errorf("%w: start date %d must be later than the current time %d", ErrInvalidConfiguration, v.StartDate, now)
	case v.EndDate <= v.StartDate:
		return fmt.Errorf("%w: end date %d must be later than start date %d", ErrInvalidConfiguration, v.EndDate, v.StartDate)
	case v.VaultCapacity < v.MinAmount:
		return fmt.Errorf("%w: vault capacity %d below minimum amount %d", ErrInvalidConfiguration, v.VaultCapacity, v.MinAmount)
	case v.YieldBps > MaxYieldBps:
		return fmt.Errorf("%w: yield %d bps above %d", ErrInvalidConfiguration, v.YieldBps, MaxYieldBps)
	}
	if _, ok := v.WithdrawOpensAt(); !ok {
		return fmt.Errorf("%w: withdraw timeframe overflows end date", ErrInvalidConfiguration)
	}
	if _, err := RequiredReserve(v.VaultCapacity, v.YieldBps); err != nil {
		return fmt.Errorf("%w: capacity plus yield overflows", ErrInvalidConfiguration)
	}
	return nil
}

// UpdateAuthority hands the vault over to newAuthority. Only the current
// authority may call it.
func (e *Engine) UpdateAuthority(ctx context.Context, vaultCount uint64, caller, newAuthority common.Address) (v model.Vault, err error) {
	started := time.Now()
	defer func() { e.observe(opUpdateAuthority, started, err) }()

	if newAuthority == (common.Address{}) {
		return model.Vault{}, fmt.Errorf("%w: new authority is required", ErrInvalidConfiguration)
	}

	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		var err error
		v, err = loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		if v.Authority != caller {
			return ErrUnauthorized
		}
		v.Authority = newAuthority
		if err := tx.SaveVault(ctx, v); err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Vault{}, err
	}

	e.logger.Info("authority updated",
		zap.Uint64("vault_count", vaultCount),
		zap.String("previous", caller.Hex()),
		zap.String("authority", newAuthority.Hex()),
	)
	evt := e.event(model.EventAuthorityUpdated, vaultCount, caller, 0, e.now())
	evt.Target = &newAuthority
	e.emit(evt)
	return v, nil
}

// CloseVault sweeps the remaining custody balance to the authority and
// deletes the vault. Only the current authority may close, and only once
// every position has been redeemed.
func (e *Engine) CloseVault(ctx context.Context, vaultCount uint64, caller common.Address) (swept uint64, err error) {
	started := time.Now()
	defer func() { e.observe(opCloseVault, started, err) }()

	var closed model.Vault
	err = e.store.Update(ctx, storage.VaultLock(vaultCount), func(tx storage.Tx) error {
		v, err := loadVault(ctx, tx, vaultCount)
		if err != nil {
			return err
		}
		if v.Authority != caller {
			return ErrUnauthorized
		}
		if v.OpenPositions > 0 {
			return fmt.Errorf("%w: %d remaining", ErrPositionsOutstanding, v.OpenPositions)
		}

		vaultAddr := custody.VaultAddress(vaultCount)
		swept, err = tx.BalanceOf(ctx, v.BaseMint, vaultAddr)
		if err != nil {
			return fmt.Errorf("custody balance: %w", err)
		}
		if err := tx.Transfer(ctx, v.BaseMint, vaultAddr, caller, swept); err != nil {
			return fmt.Errorf("sweep custody: %w", err)
		}
		if err := tx.DeleteVault(ctx, vaultCount); err != nil {
			return fmt.Errorf("delete vault: %w", err)
		}
		closed = v
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.metrics.AddAmount(opCloseVault, swept)
	e.logger.Info("vault closed",
		zap.Uint64("vault_count", vaultCount),
		zap.String("authority", caller.Hex()),
		zap.Uint64("swept", swept),
		zap.Uint64("amount_redeemed", closed.AmountRedeemed),
	)
	evt := e.event(model.EventVaultClosed, vaultCount, caller, swept, e.now())
	evt.Vault = &closed
	e.emit(evt)
	return swept, nil
}

func loadVault(ctx context.Context, tx storage.Tx, vaultCount uint64) (model.Vault, error) {
	v, ok, err := tx.LoadVault(ctx, vaultCount)
	if err != nil {
		return model.Vault{}, fmt.Errorf("load vault: %w", err)
	}
	if !ok {
		return model.Vault{}, fmt.Errorf("%w: %d", ErrVaultNotFound, vaultCount)
	}
	return v, nil
}
