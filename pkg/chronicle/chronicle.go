// Package chronicle implements the append-only event log that every
// watcher task writes matched persona events to. The log is a single
// shared file, one JSON object per line, never truncated or rewritten.
package chronicle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zachwinter/valve/pkg/persona"
)

// Sink is a handle on the chronicle file, safe for concurrent Append calls
// from multiple watcher goroutines.
type Sink struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if necessary) the chronicle file at path in
// append-only mode. Each supervised watcher task opens its own Sink onto
// the same chronicle path; O_APPEND makes each Write atomic against the
// other Sinks' file descriptors, so independent Sinks never interleave a
// line. A Sink's own mutex only serializes concurrent Append calls made
// through that one Sink.
func Open(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("unable to create chronicle directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("unable to open chronicle: %w", err)
	}

	return &Sink{file: file}, nil
}

// Append serializes event as one JSON object followed by a newline and
// appends it to the chronicle. Multiple concurrent Append calls are
// serialized against each other so that lines are never interleaved.
func (s *Sink) Append(event persona.Event) error {
	line, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("unable to marshal event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("unable to append to chronicle: %w", err)
	}

	return nil
}

// Close closes the underlying chronicle file.
func (s *Sink) Close() error {
	return s.file.Close()
}
