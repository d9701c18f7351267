// Package locking provides a single-instance advisory file lock, the
// primitive the daemon uses to guarantee that only one copy of itself runs
// for a given user at a time.
package locking

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Locker provides advisory file locking facilities, backed by a single
// underlying file. It is not safe for concurrent Lock/Unlock calls from
// multiple goroutines within the same process (advisory locks are
// per-process, not per-goroutine); callers coordinate a single Locker
// instance per process, which is how the daemon uses it.
type Locker struct {
	// file is the underlying file object to be locked.
	file *os.File
	// heldLock guards held.
	heldLock sync.Mutex
	// held records whether or not this process currently holds the lock.
	held bool
}

// NewLocker attempts to create a locker for the file at the specified path,
// creating the file if necessary. The lock is returned in an unlocked
// state. It fails if the path refers to a directory.
func NewLocker(path string, permissions os.FileMode) (*Locker, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, errors.New("lock path refers to a directory")
	}
	mode := os.O_RDWR | os.O_CREATE | os.O_APPEND
	file, err := os.OpenFile(path, mode, permissions)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}
	return &Locker{file: file}, nil
}

// Held returns whether or not this process currently holds the lock.
func (l *Locker) Held() bool {
	l.heldLock.Lock()
	defer l.heldLock.Unlock()
	return l.held
}

// Close closes the underlying lock file. It does not release the lock; the
// lock is released automatically by the OS when the file descriptor is
// closed, but callers should call Unlock explicitly first for clarity.
func (l *Locker) Close() error {
	return l.file.Close()
}
