// Command locktest attempts a single acquisition of the daemon lock (under
// whatever home directory $HOME points at) and releases it. It exists so
// TestAcquireLockFailsWhenHeld can exercise lock contention from a second
// process, since fcntl record locks don't conflict with themselves within
// one process.
package main

import (
	"fmt"
	"os"

	"github.com/zachwinter/valve/pkg/daemon"
	"github.com/zachwinter/valve/pkg/logging"
)

func main() {
	lock, err := daemon.AcquireLock(logging.RootLogger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "daemon lock acquisition failed:", err)
		os.Exit(1)
	}
	if err := lock.Release(); err != nil {
		fmt.Fprintln(os.Stderr, "daemon lock release failed:", err)
		os.Exit(1)
	}
}
