package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
)

// ErrReadOnly is returned by write methods of a View transaction.
var ErrReadOnly = errors.New("storage: read-only transaction")

// LockKey names the record a transaction serializes on.
type LockKey string

// RegistryLock serializes access to the global registry record.
const RegistryLock LockKey = "registry"

// VaultLock serializes access to a vault and its positions.
func VaultLock(vaultCount uint64) LockKey {
	return LockKey(fmt.Sprintf("vault:%d", vaultCount))
}

// CustodyLock serializes direct custody operations such as funding.
func CustodyLock(owner common.Address) LockKey {
	return LockKey("custody:" + owner.Hex())
}

// Tx is a unit of work over vault records and custody balances. Everything
// written through a Tx is committed together or not at all.
type Tx interface {
	custody.Ledger

	LoadGlobal(ctx context.Context) (model.Global, bool, error)
	SaveGlobal(ctx context.Context, g model.Global) error

	LoadVault(ctx context.Context, vaultCount uint64) (model.Vault, bool, error)
	SaveVault(ctx context.Context, v model.Vault) error
	DeleteVault(ctx context.Context, vaultCount uint64) error

	LoadPosition(ctx context.Context, vaultCount uint64, owner common.Address) (model.UserPosition, bool, error)
	SavePosition(ctx context.Context, p model.UserPosition) error
	DeletePosition(ctx context.Context, vaultCount uint64, owner common.Address) error
}

// Store runs transactions against persisted vault state.
type Store interface {
	// Update runs fn while holding key and commits its writes if fn returns nil.
	Update(ctx context.Context, key LockKey, fn func(tx Tx) error) error
	// View runs fn against committed state. Writes fail with ErrReadOnly.
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// EventSink receives events for committed operations.
type EventSink interface {
	PutEvents(events []model.VaultEvent) error
}
