package watcher

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zachwinter/valve/pkg/chronicle"
	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/registry"
)

func writeConfig(t *testing.T, repo, contents string) {
	t.Helper()
	dir := filepath.Join(repo, ".sage")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "valve.yml"), []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func waitForLines(t *testing.T, path string, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if lines, err := readLines(path); err == nil && len(lines) >= n {
			return lines
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d chronicle lines at %s", n, path)
	return nil
}

// appendFile appends data to the existing file at path with a single write,
// which yields exactly one fsnotify Write event. Creating a file instead
// yields a Create event followed by a Write event, each of which the
// watcher matches separately.
func appendFile(t *testing.T, path string, data string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if _, err := file.Write([]byte(data)); err != nil {
		t.Fatal(err)
	}
}

// TestWatchGlobOnlyScenario grounds scenario S4: modifying an existing file
// matched by a glob-only persona produces exactly one chronicle line tagged
// reason="glob".
func TestWatchGlobOnlyScenario(t *testing.T) {
	repo := t.TempDir()
	writeConfig(t, repo, `
personas:
  W:
    filters: ["**/*.txt"]
`)
	notes := filepath.Join(repo, "notes.txt")
	if err := os.WriteFile(notes, nil, 0600); err != nil {
		t.Fatal(err)
	}

	chroniclePath := filepath.Join(t.TempDir(), "valve.ndjson")
	sink, err := chronicle.Open(chroniclePath)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codebase := registry.Codebase{ID: "test", Path: repo}
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, codebase, sink, logging.RootLogger)
	}()

	time.Sleep(100 * time.Millisecond)
	appendFile(t, notes, "hello")

	lines := waitForLines(t, chroniclePath, 1, 3*time.Second)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], `"reason":"glob"`) {
		t.Errorf("expected glob reason in line: %s", lines[0])
	}

	cancel()
	<-done
}

// TestWatchGlobAndTriggerScenario grounds scenario S5: a matching write to
// an existing file produces a "glob+trigger" line; a non-matching
// overwrite produces nothing further.
func TestWatchGlobAndTriggerScenario(t *testing.T) {
	repo := t.TempDir()
	writeConfig(t, repo, `
personas:
  W:
    filters: ["**/*.rs"]
    triggers: ["fn\\s+main"]
`)
	path := filepath.Join(repo, "main.rs")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	chroniclePath := filepath.Join(t.TempDir(), "valve.ndjson")
	sink, err := chronicle.Open(chroniclePath)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codebase := registry.Codebase{ID: "test", Path: repo}
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, codebase, sink, logging.RootLogger)
	}()

	time.Sleep(100 * time.Millisecond)
	appendFile(t, path, "fn main() {}")

	lines := waitForLines(t, chroniclePath, 1, 3*time.Second)
	if !strings.Contains(lines[0], `"reason":"glob+trigger"`) {
		t.Fatalf("expected glob+trigger reason in line: %s", lines[0])
	}

	if err := os.WriteFile(path, []byte("fn test() {}"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	after, err := readLines(chroniclePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 {
		t.Fatalf("expected no additional chronicle lines, got %d: %v", len(after), after)
	}

	cancel()
	<-done
}
