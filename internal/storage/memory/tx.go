package memory

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// tx stages writes until commit. A nil map value marks a deletion.
type tx struct {
	store    *Store
	readOnly bool

	global    *model.Global
	vaults    map[uint64]*model.Vault
	positions map[model.PositionKey]*model.UserPosition
	credits   custody.Balances
	debits    custody.Balances
	opened    map[custody.Account]struct{}
}

var _ storage.Tx = (*tx)(nil)

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		store:     s,
		readOnly:  readOnly,
		vaults:    make(map[uint64]*model.Vault),
		positions: make(map[model.PositionKey]*model.UserPosition),
		credits:   make(custody.Balances),
		debits:    make(custody.Balances),
		opened:    make(map[custody.Account]struct{}),
	}
}

// committed runs f with read access to committed state. View transactions
// already hold the read lock for their whole lifetime.
func (t *tx) committed(f func(st *state)) {
	if t.readOnly {
		f(&t.store.st)
		return
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	f(&t.store.st)
}

func (t *tx) empty() bool {
	return t.global == nil && len(t.vaults) == 0 && len(t.positions) == 0 &&
		len(t.credits) == 0 && len(t.debits) == 0 && len(t.opened) == 0
}

func (t *tx) LoadGlobal(_ context.Context) (model.Global, bool, error) {
	if t.global != nil {
		return *t.global, true, nil
	}
	var (
		g  model.Global
		ok bool
	)
	t.committed(func(st *state) {
		if st.global != nil {
			g, ok = *st.global, true
		}
	})
	return g, ok, nil
}

func (t *tx) SaveGlobal(_ context.Context, g model.Global) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.global = &g
	return nil
}

func (t *tx) LoadVault(_ context.Context, vaultCount uint64) (model.Vault, bool, error) {
	if v, ok := t.vaults[vaultCount]; ok {
		if v == nil {
			return model.Vault{}, false, nil
		}
		return *v, true, nil
	}
	var (
		v  model.Vault
		ok bool
	)
	t.committed(func(st *state) {
		v, ok = st.vaults[vaultCount]
	})
	return v, ok, nil
}

func (t *tx) SaveVault(_ context.Context, v model.Vault) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.vaults[v.VaultCount] = &v
	return nil
}

func (t *tx) DeleteVault(_ context.Context, vaultCount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.vaults[vaultCount] = nil
	return nil
}

func (t *tx) LoadPosition(_ context.Context, vaultCount uint64, owner common.Address) (model.UserPosition, bool, error) {
	key := model.PositionKey{VaultCount: vaultCount, Owner: owner}
	if p, ok := t.positions[key]; ok {
		if p == nil {
			return model.UserPosition{}, false, nil
		}
		return *p, true, nil
	}
	var (
		p  model.UserPosition
		ok bool
	)
	t.committed(func(st *state) {
		p, ok = st.positions[key]
	})
	return p, ok, nil
}

func (t *tx) SavePosition(_ context.Context, p model.UserPosition) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.positions[p.Key()] = &p
	return nil
}

func (t *tx) DeletePosition(_ context.Context, vaultCount uint64, owner common.Address) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.positions[model.PositionKey{VaultCount: vaultCount, Owner: owner}] = nil
	return nil
}

func (t *tx) BalanceOf(_ context.Context, mint, owner common.Address) (uint64, error) {
	acct := custody.Account{Mint: mint, Owner: owner}
	var base uint64
	t.committed(func(st *state) {
		base = st.balances[acct]
	})
	credit := t.credits[acct]
	debit := t.debits[acct]

	total := base + credit
	if total < base {
		return 0, fmt.Errorf("balance %s/%s: %w", mint.Hex(), owner.Hex(), custody.ErrBalanceOverflow)
	}
	if total < debit {
		return 0, nil
	}
	return total - debit, nil
}

func (t *tx) Transfer(ctx context.Context, mint, from, to common.Address, amount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if amount == 0 {
		return nil
	}
	have, err := t.BalanceOf(ctx, mint, from)
	if err != nil {
		return err
	}
	if have < amount {
		return fmt.Errorf("transfer from %s: have %d, need %d: %w", from.Hex(), have, amount, custody.ErrInsufficientBalance)
	}
	if err := t.debits.Credit(custody.Account{Mint: mint, Owner: from}, amount); err != nil {
		return err
	}
	return t.credits.Credit(custody.Account{Mint: mint, Owner: to}, amount)
}

func (t *tx) Open(_ context.Context, mint, owner common.Address) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.opened[custody.Account{Mint: mint, Owner: owner}] = struct{}{}
	return nil
}

func (t *tx) Mint(_ context.Context, mint, owner common.Address, amount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return t.credits.Credit(custody.Account{Mint: mint, Owner: owner}, amount)
}

// apply writes the staged changes onto st. Balances are checked first so a
// failed commit leaves st untouched.
func (t *tx) apply(st *state) error {
	next := make(custody.Balances, len(t.credits)+len(t.debits))
	for acct := range t.credits {
		next[acct] = 0
	}
	for acct := range t.debits {
		next[acct] = 0
	}
	for acct := range next {
		base := st.balances[acct]
		total := base + t.credits[acct]
		if total < base {
			return fmt.Errorf("commit balance %s/%s: %w", acct.Mint.Hex(), acct.Owner.Hex(), custody.ErrBalanceOverflow)
		}
		debit := t.debits[acct]
		if total < debit {
			return fmt.Errorf("commit balance %s/%s: have %d, need %d: %w", acct.Mint.Hex(), acct.Owner.Hex(), total, debit, custody.ErrInsufficientBalance)
		}
		next[acct] = total - debit
	}

	if t.global != nil {
		g := *t.global
		st.global = &g
	}
	for id, v := range t.vaults {
		if v == nil {
			delete(st.vaults, id)
			continue
		}
		st.vaults[id] = *v
	}
	for key, p := range t.positions {
		if p == nil {
			delete(st.positions, key)
			continue
		}
		st.positions[key] = *p
	}
	for acct := range t.opened {
		if _, ok := st.balances[acct]; !ok {
			st.balances[acct] = 0
		}
	}
	for acct, amount := range next {
		st.balances[acct] = amount
	}
	return nil
}
