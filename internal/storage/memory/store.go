// Package memory implements storage.Store in process memory, optionally
// persisting every commit to a JSON state file.
package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"elementalVault/internal/storage"
)

// Store keeps vault state in memory. Transactions on different lock keys run
// in parallel; commits are applied under a short store-wide write lock.
//
// A store opened on a state file is shared with other processes: every
// transaction holds an OS file lock, reloads the file and, for Update, writes
// it back before releasing the lock. File-backed transactions are therefore
// serialized within the process as well.
type Store struct {
	mu     sync.RWMutex
	st     state
	locks  sync.Map
	path   string
	file   *fileLock
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// New returns an empty, non-persistent store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{st: newState(), logger: logger}
}

// Open returns a store backed by the JSON state file at path. The file is
// created on the first commit if it does not exist.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st, ok, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("state file loaded",
			zap.String("path", path),
			zap.Int("vaults", len(st.vaults)),
			zap.Int("positions", len(st.positions)),
		)
	}
	return &Store{st: st, path: path, file: newFileLock(path), logger: logger}, nil
}

func (s *Store) lock(key storage.LockKey) func() {
	m, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Update runs fn while holding key and commits its staged writes.
func (s *Store) Update(ctx context.Context, key storage.LockKey, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(key)
	defer unlock()

	if s.file != nil {
		release, err := s.file.acquire(ctx, true)
		if err != nil {
			return err
		}
		defer release()
		if err := s.reload(); err != nil {
			return err
		}
	}

	t := newTx(s, false)
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t)
}

// View runs fn against a consistent view of committed state.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.file != nil {
		release, err := s.file.acquire(ctx, false)
		if err != nil {
			return err
		}
		defer release()
		if err := s.reload(); err != nil {
			return err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newTx(s, true))
}

func (s *Store) Close() error {
	if s.file != nil {
		return s.file.close()
	}
	return nil
}

// reload replaces the in-memory state with the state file's contents.
func (s *Store) reload() error {
	st, _, err := loadSnapshot(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	return nil
}

func (s *Store) commit(t *tx) error {
	if t.empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.st
	if s.path != "" {
		target = s.st.clone()
	}
	if err := t.apply(&target); err != nil {
		return err
	}
	if s.path != "" {
		if err := saveSnapshot(s.path, target); err != nil {
			return err
		}
	}
	s.st = target
	return nil
}
