// Command lockertest attempts a single non-blocking lock acquisition
// against the path given as its only argument, then exits. It exists
// purely so TestLockDuplicateFail can exercise lock contention from a
// second process: fcntl record locks are owned per-process, so a second
// acquisition attempt from the same test process would never conflict
// with the first.
package main

import (
	"fmt"
	"os"

	"github.com/zachwinter/valve/pkg/filesystem/locking"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: lockertest <path>")
		os.Exit(2)
	}
	path := os.Args[1]

	locker, err := locking.NewLocker(path, 0600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unable to create filesystem locker:", err)
		os.Exit(1)
	}

	if err := locker.Lock(false); err != nil {
		fmt.Fprintln(os.Stderr, "lock acquisition failed:", err)
		os.Exit(1)
	}

	if err := locker.Unlock(); err != nil {
		fmt.Fprintln(os.Stderr, "lock release failed:", err)
		os.Exit(1)
	}
	if err := locker.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "locker closure failed:", err)
		os.Exit(1)
	}
}
