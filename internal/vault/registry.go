package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// InitGlobal creates the registry with a zero vault counter.
func (e *Engine) InitGlobal(ctx context.Context, caller common.Address) (g model.Global, err error) {
	started := time.Now()
	defer func() { e.observe(opInitGlobal, started, err) }()

	err = e.store.Update(ctx, storage.RegistryLock, func(tx storage.Tx) error {
		_, ok, err := tx.LoadGlobal(ctx)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		if ok {
			return ErrAlreadyInitialized
		}
		g = model.Global{VaultCounter: 0}
		return tx.SaveGlobal(ctx, g)
	})
	if err != nil {
		return model.Global{}, err
	}

	e.logger.Info("registry initialized", zap.String("caller", caller.Hex()))
	e.emit(e.event(model.EventGlobalInitialized, 0, caller, 0, e.now()))
	return g, nil
}

// Global returns the registry.
func (e *Engine) Global(ctx context.Context) (model.Global, error) {
	var g model.Global
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var (
			ok  bool
			err error
		)
		g, ok, err = tx.LoadGlobal(ctx)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		if !ok {
			return ErrNotInitialized
		}
		return nil
	})
	return g, err
}

// nextVaultID returns the current counter and advances it.
func nextVaultID(g *model.Global) (uint64, error) {
	id := g.VaultCounter
	next, err := addAmount(id, 1)
	if err != nil {
		return 0, err
	}
	g.VaultCounter = next
	return id, nil
}
