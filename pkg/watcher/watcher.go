// Package watcher implements the per-codebase filesystem watch loop: load
// personas, watch the repository recursively, match changes against
// personas, and append matched events to a shared chronicle.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/zachwinter/valve/pkg/chronicle"
	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/persona"
	"github.com/zachwinter/valve/pkg/registry"
)

// Watch runs the watch loop for a single codebase until ctx is canceled or
// an unrecoverable error occurs. It loads the codebase's persona
// configuration once at startup; persona changes are only picked up by a
// fresh watcher (a supervisor restart).
func Watch(ctx context.Context, codebase registry.Codebase, sink *chronicle.Sink, logger *logging.Logger) error {
	cfg, err := persona.Load(codebase.Path)
	if err != nil {
		logger.Warnf("unable to load persona config for %s, watching with no personas: %s", codebase.Path, err.Error())
		cfg = &persona.Config{Personas: map[string]persona.Definition{}}
	}

	personas, err := persona.Compile(cfg)
	if err != nil {
		logger.Warnf("unable to compile personas for %s, watching with no personas: %s", codebase.Path, err.Error())
		personas = nil
	}

	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create filesystem watcher: %w", err)
	}
	defer watch.Close()

	if err := addRecursive(watch, codebase.Path); err != nil {
		return fmt.Errorf("unable to watch %s: %w", codebase.Path, err)
	}

	logger.Printf("watching %s (%d personas)", codebase.Path, len(personas))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watch.Events:
			if !ok {
				return nil
			}
			if err := handleEvent(watch, codebase, event, personas, sink, logger); err != nil {
				return err
			}
		case err, ok := <-watch.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error for %s: %s", codebase.Path, err.Error())
		}
	}
}

// relevantOps are the fsnotify operations the watcher reacts to; metadata-
// only changes (chmod) are discarded.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// handleEvent reacts to a single fsnotify event. A failed chronicle append
// is returned as an error: the caller treats this as a watcher crash, and
// the supervisor restarts the task with backoff rather than silently
// dropping matched events.
func handleEvent(watch *fsnotify.Watcher, codebase registry.Codebase, event fsnotify.Event, personas []*persona.Compiled, sink *chronicle.Sink, logger *logging.Logger) error {
	if event.Op&relevantOps == 0 {
		return nil
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watch, event.Name); err != nil {
				logger.Warnf("unable to watch new directory %s: %s", event.Name, err.Error())
			}
		}
	}

	rel, err := filepath.Rel(codebase.Path, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = filepath.ToSlash(rel)

	content := readContent(event.Name)

	now := time.Now().UnixMilli()
	for _, ev := range persona.Match(personas, codebase.Path, rel, content, now) {
		if err := sink.Append(ev); err != nil {
			return fmt.Errorf("unable to append chronicle event: %w", err)
		}
	}
	return nil
}

// readContent attempts to read path as UTF-8 text. It returns nil if the
// file is missing, is a directory, or is not valid UTF-8: triggers that
// require content simply never match in those cases.
func readContent(path string) *string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if !utf8.Valid(data) {
		return nil
	}

	text := string(data)
	return &text
}

// addRecursive adds fsnotify watches for root and every directory beneath
// it. fsnotify does not support recursive watches natively, so new
// subdirectories discovered after startup are added individually as
// Create events for directories arrive.
func addRecursive(watch *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := watch.Add(path); addErr != nil {
			return fmt.Errorf("unable to add watch for %s: %w", path, addErr)
		}
		return nil
	})
}
