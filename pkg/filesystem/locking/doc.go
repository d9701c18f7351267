// Package locking currently implements advisory locking only for POSIX
// targets (build-tagged !windows,!plan9), using syscall.FcntlFlock. A
// Windows backend (LockFileEx, as the teacher implements in its own
// locker_windows.go) is a known gap, not silently dropped: this daemon's
// service-install templates (see pkg/daemon/service.go) only target
// systemd and launchd at first-class fidelity, so Windows support was not
// carried forward for the lock implementation either.
package locking
