// Package supervisor owns the set of running watcher tasks and keeps it
// converged with the codebase registry: reconciling spawns watchers for
// newly registered codebases and aborts watchers for ones that were
// removed, restarting crashed watchers with exponential backoff.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zachwinter/valve/pkg/chronicle"
	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/registry"
	"github.com/zachwinter/valve/pkg/watcher"
)

// initialBackoff is the delay before the first restart of a crashed
// watcher.
const initialBackoff = 1 * time.Second

// maxBackoff caps the restart delay; backoff doubles on each crash but
// never exceeds this, and never resets for the lifetime of a single task.
const maxBackoff = 60 * time.Second

// task is a single supervised watcher: cancel stops it, done closes when
// its goroutine has fully exited.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor reconciles a set of watcher tasks against a registry
// snapshot. It is safe for concurrent use: the daemon reconciles both from
// its signal loop and from control-plane session goroutines.
type Supervisor struct {
	chroniclePath string
	logger        *logging.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

// New creates a Supervisor that appends matched events to the chronicle
// at chroniclePath.
func New(chroniclePath string, logger *logging.Logger) *Supervisor {
	return &Supervisor{
		chroniclePath: chroniclePath,
		logger:        logger,
		tasks:         make(map[string]*task),
	}
}

// Reconcile converges the running task set with the given registry
// snapshot: tasks for ids no longer present are aborted and dropped, and
// tasks are spawned for ids present in the snapshot but not yet running.
// Reconcile is idempotent: calling it twice with the same snapshot after
// the first call has converged is a no-op.
func (s *Supervisor) Reconcile(snapshot map[string]registry.Codebase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		if _, ok := snapshot[id]; !ok {
			t.cancel()
			delete(s.tasks, id)
		}
	}

	for id, cb := range snapshot {
		if _, ok := s.tasks[id]; ok {
			continue
		}
		s.tasks[id] = s.spawn(id, cb)
	}
}

// spawn starts a supervised watcher goroutine for the given codebase. The
// caller must hold s.mu.
func (s *Supervisor) spawn(id string, cb registry.Codebase) *task {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	logger := s.logger.Sublogger(id)

	go func() {
		defer close(done)

		backoff := initialBackoff
		for {
			err := s.runOnce(ctx, cb, logger)
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				logger.Printf("watcher for %s finished normally", cb.Path)
				return
			}

			logger.Warnf("watcher for %s crashed, restarting in %s: %s", cb.Path, backoff, err.Error())

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()

	return &task{cancel: cancel, done: done}
}

// runOnce opens a fresh chronicle sink and runs the watch loop to
// completion or failure. A chronicle that fails to open is treated the
// same as any other watch failure: it's returned to spawn's retry loop
// instead of terminating the task, since a transient condition (the
// chronicles directory briefly unwritable, a file descriptor limit) can
// clear before the next backoff attempt.
func (s *Supervisor) runOnce(ctx context.Context, cb registry.Codebase, logger *logging.Logger) error {
	sink, err := chronicle.Open(s.chroniclePath)
	if err != nil {
		return fmt.Errorf("unable to open chronicle for %s: %w", cb.Path, err)
	}
	defer sink.Close()

	return watcher.Watch(ctx, cb, sink, logger)
}

// Shutdown aborts every running task and waits for each to fully exit.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for id, t := range s.tasks {
		t.cancel()
		tasks = append(tasks, t)
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		<-t.done
	}
}

// Running returns the number of currently supervised tasks, for tests and
// diagnostics.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
