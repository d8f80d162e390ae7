package vault

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// Fund mints amount of mint into owner's custody account. It stands in for
// an external token program when running against a local store.
func (e *Engine) Fund(ctx context.Context, mint, owner common.Address, amount uint64) (balance uint64, err error) {
	started := time.Now()
	defer func() { e.observe(opFund, started, err) }()

	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	err = e.store.Update(ctx, storage.CustodyLock(owner), func(tx storage.Tx) error {
		if err := tx.Mint(ctx, mint, owner, amount); err != nil {
			return err
		}
		var err error
		balance, err = tx.BalanceOf(ctx, mint, owner)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.metrics.AddAmount(opFund, amount)
	e.logger.Info("account funded",
		zap.String("mint", mint.Hex()),
		zap.String("owner", owner.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", balance),
	)
	ev := e.event(model.EventFunded, 0, owner, amount, e.now())
	ev.Target = &mint
	e.emit(ev)
	return balance, nil
}

// Balance returns owner's custody balance of mint.
func (e *Engine) Balance(ctx context.Context, mint, owner common.Address) (uint64, error) {
	var balance uint64
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = tx.BalanceOf(ctx, mint, owner)
		return err
	})
	return balance, err
}
