package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type sample struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

func readLines(t *testing.T, path string) []sample {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("os.Open(%s) failed: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []sample
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s sample
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			t.Fatalf("json.Unmarshal(%q) failed: %v", sc.Text(), err)
		}
		out = append(out, s)
	}
	return out
}

func TestJSONLWriterWritesRecordsInOrder(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLWriter(dir, "runs", "abcd1234", 16, 10)
	w.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	for i, p := range []string{"/dashboard/truck-owner", "/dashboard/shipper", "/dashboard/admin"} {
		if err := w.Record(sample{Index: i, Path: p}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	path := filepath.Join(dir, "2026-10-18", "runs", "abcd1234.jsonl")
	if got := w.Path(); got != path {
		t.Fatalf("Path() = %q; want %q", got, path)
	}
	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d; want 3", len(lines))
	}
	for i, l := range lines {
		if l.Index != i {
			t.Fatalf("lines[%d].Index = %d; want %d", i, l.Index, i)
		}
	}
}

func TestJSONLWriterRejectsAfterClose(t *testing.T) {
	w := NewJSONLWriter(t.TempDir(), "runs", "x", 1, 1)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Record(sample{}); err == nil {
		t.Fatal("expected error writing to closed writer")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestJSONLWriterSkipsUnmarshalableRecord(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLWriter(dir, "runs", "bad", 4, 1)
	if err := w.Record(map[string]any{"fn": func() {}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := w.Record(sample{Index: 7}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := readLines(t, w.Path())
	if len(lines) != 1 || lines[0].Index != 7 {
		t.Fatalf("lines = %+v; want single record with index 7", lines)
	}
}

func TestJSONLWriterKeepsAcceptedRecordsRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		dir := t.TempDir()
		w := NewJSONLWriter(dir, "runs", "race", 1024, 10)

		var accepted atomic.Int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				<-start
				for i := 0; i < 50; i++ {
					if err := w.Record(sample{Index: g*100 + i}); err == nil {
						accepted.Add(1)
					}
				}
			}(g)
		}
		close(start)
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		wg.Wait()

		var got int
		if path := w.Path(); path != "" {
			got = len(readLines(t, path))
		}
		if int64(got) != accepted.Load() {
			t.Fatalf("round %d: lines written = %d; want %d accepted records", round, got, accepted.Load())
		}
	}
}
