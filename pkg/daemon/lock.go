package daemon

import (
	"fmt"

	"github.com/zachwinter/valve/pkg/filesystem/locking"
	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/must"
)

// Lock represents the global daemon lock. Only one process can hold it at a
// time, which is what guarantees that at most one valve daemon runs per
// user.
type Lock struct {
	locker *locking.Locker
	logger *logging.Logger
}

// AcquireLock attempts to acquire the global daemon lock without blocking.
// It returns an error if the lock is already held by another process.
func AcquireLock(logger *logging.Logger) (*Lock, error) {
	path, err := lockPath()
	if err != nil {
		return nil, fmt.Errorf("unable to compute daemon lock path: %w", err)
	}

	locker, err := locking.NewLocker(path, 0600)
	if err != nil {
		return nil, fmt.Errorf("unable to create daemon file locker: %w", err)
	}
	if err := locker.Lock(false); err != nil {
		must.Close(locker, logger)
		return nil, fmt.Errorf("daemon lock already held: %w", err)
	}

	return &Lock{locker: locker, logger: logger}, nil
}

// Release releases the daemon lock and closes its underlying file.
func (l *Lock) Release() error {
	if err := l.locker.Unlock(); err != nil {
		must.Close(l.locker, l.logger)
		return err
	}
	if err := l.locker.Close(); err != nil {
		return fmt.Errorf("unable to close locker: %w", err)
	}
	return nil
}
