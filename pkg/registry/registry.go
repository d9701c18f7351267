// Package registry tracks the set of codebases the daemon is watching. It
// is the sole piece of shared state between the control plane (which
// mutates it in response to register/unregister requests) and the
// supervisor (which reconciles its running watch tasks against it).
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Codebase is a single registered repository.
type Codebase struct {
	// ID is a randomly generated identifier, stable for the lifetime of the
	// registration.
	ID string `json:"id"`
	// Path is the canonical (absolute, symlink-resolved) path to the
	// repository.
	Path string `json:"path"`
}

// document is the on-disk JSON representation of a Registry.
type document struct {
	Codebases map[string]Codebase `json:"codebases"`
}

// Registry is the thread-safe set of registered codebases, backed by a
// JSON file on disk. Registrations are not deduplicated by path: the same
// directory can be registered more than once under distinct IDs, each
// producing its own independently supervised watch task.
type Registry struct {
	mu        sync.RWMutex
	path      string
	codebases map[string]Codebase
}

// Load reads the registry from path, creating an empty registry if the
// file doesn't exist yet.
func Load(path string) (*Registry, error) {
	r := &Registry{
		path:      path,
		codebases: make(map[string]Codebase),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse registry: %w", err)
	}
	if doc.Codebases != nil {
		r.codebases = doc.Codebases
	}

	return r, nil
}

// persist writes the registry to disk. The caller must hold mu.
func (r *Registry) persist() error {
	doc := document{Codebases: r.codebases}

	raw, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("unable to create registry directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("unable to write registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("unable to finalize registry: %w", err)
	}

	return nil
}

// Add registers a new codebase at the given path and persists the
// registry. The path is canonicalized (symlinks resolved, made absolute)
// before being stored; it is not checked against existing entries, so
// registering the same path twice yields two independent codebases.
func (r *Registry) Add(path string) (Codebase, error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return Codebase{}, fmt.Errorf("unable to resolve path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
		canonical = resolved
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return Codebase{}, fmt.Errorf("unable to stat path: %w", err)
	}
	if !info.IsDir() {
		return Codebase{}, fmt.Errorf("path is not a directory: %s", canonical)
	}

	cb := Codebase{ID: uuid.New().String(), Path: canonical}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.codebases[cb.ID] = cb
	if err := r.persist(); err != nil {
		delete(r.codebases, cb.ID)
		return Codebase{}, err
	}

	return cb, nil
}

// RemoveByIDOrPath removes a codebase matched either by its ID or by an
// exact match against its stored path, preferring an ID match. It returns
// the removed codebase, or false if nothing matched.
func (r *Registry) RemoveByIDOrPath(target string) (Codebase, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.codebases[target]; ok {
		delete(r.codebases, target)
		if err := r.persist(); err != nil {
			r.codebases[target] = cb
			return Codebase{}, false, err
		}
		return cb, true, nil
	}

	for id, cb := range r.codebases {
		if cb.Path == target {
			delete(r.codebases, id)
			if err := r.persist(); err != nil {
				r.codebases[id] = cb
				return Codebase{}, false, err
			}
			return cb, true, nil
		}
	}

	return Codebase{}, false, nil
}

// List returns a snapshot of all registered codebases, sorted by ID for
// stable output.
func (r *Registry) List() []Codebase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Codebase, 0, len(r.codebases))
	for _, cb := range r.codebases {
		result = append(result, cb)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Snapshot returns the current codebase set keyed by ID, for use by the
// supervisor's reconciliation pass. The returned map is a copy and safe to
// range over without holding the registry lock.
func (r *Registry) Snapshot() map[string]Codebase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]Codebase, len(r.codebases))
	for id, cb := range r.codebases {
		snapshot[id] = cb
	}
	return snapshot
}
