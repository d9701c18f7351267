package supervisor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/registry"
)

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	chroniclePath := filepath.Join(t.TempDir(), "valve.ndjson")
	return New(chroniclePath, logging.RootLogger)
}

func TestReconcileSpawnsAndTracksTasks(t *testing.T) {
	s := newTestSupervisor(t)

	snapshot := map[string]registry.Codebase{
		"a": {ID: "a", Path: t.TempDir()},
		"b": {ID: "b", Path: t.TempDir()},
	}
	s.Reconcile(snapshot)

	waitForCount(t, s, 2, time.Second)

	s.Shutdown()
	if s.Running() != 0 {
		t.Errorf("expected 0 running tasks after shutdown, got %d", s.Running())
	}
}

// TestReconcileIsIdempotent grounds invariant 5: reconciling the same
// snapshot twice leaves the task set unchanged.
func TestReconcileIsIdempotent(t *testing.T) {
	s := newTestSupervisor(t)

	snapshot := map[string]registry.Codebase{
		"a": {ID: "a", Path: t.TempDir()},
	}
	s.Reconcile(snapshot)
	waitForCount(t, s, 1, time.Second)

	s.Reconcile(snapshot)
	if s.Running() != 1 {
		t.Errorf("expected 1 running task after repeated reconcile, got %d", s.Running())
	}

	s.Shutdown()
}

// TestReconcileAbortsRemovedCodebases covers the removal half of
// reconciliation.
func TestReconcileAbortsRemovedCodebases(t *testing.T) {
	s := newTestSupervisor(t)

	snapshot := map[string]registry.Codebase{
		"a": {ID: "a", Path: t.TempDir()},
		"b": {ID: "b", Path: t.TempDir()},
	}
	s.Reconcile(snapshot)
	waitForCount(t, s, 2, time.Second)

	delete(snapshot, "b")
	s.Reconcile(snapshot)
	waitForCount(t, s, 1, time.Second)

	s.Shutdown()
}

// TestShutdownClearsTasks grounds invariant 6: after shutdown the task
// set is empty.
func TestShutdownClearsTasks(t *testing.T) {
	s := newTestSupervisor(t)

	s.Reconcile(map[string]registry.Codebase{
		"a": {ID: "a", Path: t.TempDir()},
	})
	waitForCount(t, s, 1, time.Second)

	s.Shutdown()
	if s.Running() != 0 {
		t.Errorf("expected empty task set after shutdown, got %d", s.Running())
	}
}

func waitForCount(t *testing.T, s *Supervisor, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Running() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d running tasks, have %d", n, s.Running())
}
