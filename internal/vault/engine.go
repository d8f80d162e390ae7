// Package vault implements the time-boxed, yield-bearing deposit vault
// engine: vault lifecycle, deposits, authority withdrawals and redemptions.
package vault

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"elementalVault/internal/metrics"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

const (
	opInitGlobal        = "init_global"
	opInitOrUpdateVault = "init_or_update_vault"
	opDeposit           = "deposit"
	opAuthorityWithdraw = "authority_withdraw"
	opUserWithdraw      = "user_withdraw"
	opUpdateAuthority   = "update_authority"
	opCloseVault        = "close_vault"
	opFund              = "fund"
	opTopup             = "topup"
)

// Engine applies vault operations against a Store. Every mutating operation
// runs in one storage transaction scoped to the vault it touches, so
// bookkeeping and custody transfers commit together.
type Engine struct {
	store   storage.Store
	sink    storage.EventSink
	metrics *metrics.EngineMetrics
	logger  *zap.Logger
	nowFn   func() uint64
}

func NewEngine(store storage.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger,
		nowFn:  unixNow,
	}
}

// SetNowFunc overrides the clock, in unix seconds. Nil restores wall time.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = unixNow
		return
	}
	e.nowFn = now
}

// SetEventSink configures where committed operations are journaled.
func (e *Engine) SetEventSink(sink storage.EventSink) { e.sink = sink }

// SetMetrics configures operation instrumentation.
func (e *Engine) SetMetrics(m *metrics.EngineMetrics) { e.metrics = m }

func unixNow() uint64 {
	return uint64(time.Now().Unix())
}

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return unixNow()
	}
	return e.nowFn()
}

func (e *Engine) observe(op string, started time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = Kind(err)
		e.logger.Debug("operation rejected", zap.String("operation", op), zap.String("kind", status), zap.Error(err))
	}
	e.metrics.Observe(op, status, started)
}

func (e *Engine) event(typ string, vaultCount uint64, actor common.Address, amount, now uint64) model.VaultEvent {
	return model.VaultEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		VaultCount: vaultCount,
		Actor:      actor,
		Amount:     amount,
		Timestamp:  now,
	}
}

// emit journals events of an already committed operation. Journal failures
// are logged; they never undo the operation.
func (e *Engine) emit(events ...model.VaultEvent) {
	if e.sink == nil || len(events) == 0 {
		return
	}
	if err := e.sink.PutEvents(events); err != nil {
		e.logger.Warn("journal events failed", zap.Error(err), zap.String("type", events[0].Type))
	}
}
