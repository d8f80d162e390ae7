package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const fileLockRetry = 20 * time.Millisecond

// fileLock guards a state file across processes. flock treats a second lock
// through the same handle as already held, so goroutines of this process
// queue on mu first.
type fileLock struct {
	mu   sync.Mutex
	lock *flock.Flock
}

func newFileLock(statePath string) *fileLock {
	return &fileLock{lock: flock.New(statePath + ".lock")}
}

// acquire takes the lock, exclusive for writers and shared for readers, and
// returns its release function.
func (l *fileLock) acquire(ctx context.Context, exclusive bool) (func(), error) {
	l.mu.Lock()

	if dir := filepath.Dir(l.lock.Path()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = l.lock.TryLockContext(ctx, fileLockRetry)
	} else {
		ok, err = l.lock.TryRLockContext(ctx, fileLockRetry)
	}
	if err != nil || !ok {
		l.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock state file: %w", err)
	}

	return func() {
		_ = l.lock.Unlock()
		l.mu.Unlock()
	}, nil
}

func (l *fileLock) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lock.Unlock()
}
