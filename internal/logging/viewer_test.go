package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func writeLogFixture(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "askdoc.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write log fixture: %v", err)
	}
	return path
}

func TestViewer_Tail_ReturnsLastN(t *testing.T) {
	path := writeLogFixture(t,
		`{"time":"2026-08-21T10:00:01Z","level":"INFO","msg":"one"}`,
		`{"time":"2026-08-21T10:00:02Z","level":"INFO","msg":"two"}`,
		`{"time":"2026-08-21T10:00:03Z","level":"INFO","msg":"three"}`,
	)

	v := NewViewer(ViewerConfig{NoColor: true}, os.Stdout)
	entries, err := v.Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Msg != "two" || entries[1].Msg != "three" {
		t.Errorf("expected the last two messages, got %q and %q", entries[0].Msg, entries[1].Msg)
	}
}

func TestViewer_Tail_LevelFilter(t *testing.T) {
	path := writeLogFixture(t,
		`{"time":"2026-08-21T10:00:01Z","level":"DEBUG","msg":"noise"}`,
		`{"time":"2026-08-21T10:00:02Z","level":"ERROR","msg":"indexing failed"}`,
		`{"time":"2026-08-21T10:00:03Z","level":"INFO","msg":"query completed"}`,
	)

	v := NewViewer(ViewerConfig{Level: "error", NoColor: true}, os.Stdout)
	entries, err := v.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Msg != "indexing failed" {
		t.Errorf("expected the error entry, got %q", entries[0].Msg)
	}
}

func TestViewer_Tail_PatternFilter(t *testing.T) {
	path := writeLogFixture(t,
		`{"time":"2026-08-21T10:00:01Z","level":"INFO","msg":"indexing started"}`,
		`{"time":"2026-08-21T10:00:02Z","level":"INFO","msg":"query started"}`,
	)

	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`query`), NoColor: true}, os.Stdout)
	entries, err := v.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if len(entries) != 1 || entries[0].Msg != "query started" {
		t.Errorf("expected only the query entry, got %+v", entries)
	}
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, os.Stdout)
	if _, err := v.Tail(filepath.Join(t.TempDir(), "absent.log"), 10); err == nil {
		t.Error("expected an error for a missing log file")
	}
}

func TestViewer_FormatEntry_NoColor(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, os.Stdout)
	entry := v.parseLine(`{"time":"2026-08-21T10:00:01.500Z","level":"INFO","msg":"query completed","top_k":3}`)

	got := v.FormatEntry(entry)

	if !strings.Contains(got, "INFO ") {
		t.Errorf("expected padded level, got %q", got)
	}
	if !strings.Contains(got, "query completed") {
		t.Errorf("expected message, got %q", got)
	}
	if !strings.Contains(got, "top_k=3") {
		t.Errorf("expected attribute, got %q", got)
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("expected no ANSI colors, got %q", got)
	}
}

func TestViewer_FormatEntry_RawPassthrough(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, os.Stdout)
	entry := v.parseLine("not json at all")

	if got := v.FormatEntry(entry); got != "not json at all" {
		t.Errorf("expected raw passthrough, got %q", got)
	}
}

func TestViewer_Print_WritesEachEntry(t *testing.T) {
	var buf bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true}, &buf)

	v.Print([]Entry{
		v.parseLine(`{"time":"2026-08-21T10:00:01Z","level":"INFO","msg":"one"}`),
		v.parseLine(`{"time":"2026-08-21T10:00:02Z","level":"WARN","msg":"two"}`),
	})

	out := buf.String()
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("expected both entries printed, got %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}
}

func TestViewer_Follow_DeliversNewLines(t *testing.T) {
	path := writeLogFixture(t,
		`{"time":"2026-08-21T10:00:01Z","level":"INFO","msg":"old"}`,
	)

	v := NewViewer(ViewerConfig{NoColor: true}, os.Stdout)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan Entry, 10)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()

	// Give Follow time to seek to the end before appending.
	time.Sleep(200 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to open log for append: %v", err)
	}
	if _, err := f.WriteString(`{"time":"2026-08-21T10:00:05Z","level":"INFO","msg":"fresh"}` + "\n"); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	_ = f.Close()

	select {
	case entry := <-entries:
		if entry.Msg != "fresh" {
			t.Errorf("expected the appended entry, got %q", entry.Msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for followed entry")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Follow returned error: %v", err)
	}
}
