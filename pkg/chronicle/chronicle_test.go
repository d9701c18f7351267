package chronicle

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zachwinter/valve/pkg/persona"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal("unable to open chronicle for reading:", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestAppendWritesOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valve.ndjson")
	sink, err := Open(path)
	if err != nil {
		t.Fatal("unable to open chronicle:", err)
	}
	defer sink.Close()

	events := []persona.Event{
		{Persona: "W", Repo: "/repo", File: "a.txt", Reason: "glob", Timestamp: 1},
		{Persona: "W", Repo: "/repo", File: "b.rs", Reason: "glob+trigger", Timestamp: 2},
	}
	for _, e := range events {
		if err := sink.Append(e); err != nil {
			t.Fatal("unable to append event:", err)
		}
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded persona.Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatal("unable to decode chronicle line:", err)
	}
	if decoded != events[0] {
		t.Errorf("decoded event mismatch: %+v != %+v", decoded, events[0])
	}
}

func TestAppendIsConcurrencySafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valve.ndjson")
	sink, err := Open(path)
	if err != nil {
		t.Fatal("unable to open chronicle:", err)
	}
	defer sink.Close()

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			sink.Append(persona.Event{Persona: "W", File: "f.txt", Reason: "glob", Timestamp: int64(n)})
		}(i)
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != writers {
		t.Fatalf("expected %d lines, got %d", writers, len(lines))
	}
	for _, line := range lines {
		var decoded persona.Event
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Errorf("line is not valid JSON: %q: %v", line, err)
		}
	}
}

func TestOpenReopensExistingChronicle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valve.ndjson")

	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Append(persona.Event{Persona: "W", File: "a.txt", Reason: "glob", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if err := second.Append(persona.Event{Persona: "W", File: "b.txt", Reason: "glob", Timestamp: 2}); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines across both opens, got %d", len(lines))
	}
}
