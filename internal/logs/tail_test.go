package logs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func writeLog(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestLatestPicksNewestRunLog(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeLog(t, filepath.Join(dir, "subremux-a.log"), "old\n", now.Add(-time.Hour))
	writeLog(t, filepath.Join(dir, "subremux-b.log"), "new\n", now)
	writeLog(t, filepath.Join(dir, "other.log"), "ignored\n", now.Add(time.Hour))

	got, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "subremux-b.log" {
		t.Fatalf("Latest = %s", got)
	}

	if _, err := Latest(t.TempDir()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist for empty dir, got %v", err)
	}
}

func TestLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subremux-x.log")
	writeLog(t, path, "one\ntwo\nthree\nfour\n", time.Now())

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"three", "four"}},
		{limit: 10, want: []string{"one", "two", "three", "four"}},
		{limit: 0, want: []string{}},
	}
	for _, tt := range tests {
		lines, offset, err := Last(path, tt.limit)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(lines, tt.want) {
			t.Errorf("Last(%d) = %q, want %q", tt.limit, lines, tt.want)
		}
		if offset != int64(len("one\ntwo\nthree\nfour\n")) {
			t.Errorf("offset = %d", offset)
		}
	}
}

func TestReadFromKeepsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subremux-x.log")
	writeLog(t, path, "done\npartial", time.Now())

	lines, offset, err := ReadFrom(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"done"}) || offset != 5 {
		t.Fatalf("ReadFrom = %q @%d", lines, offset)
	}

	lines, offset, err = ReadFrom(path, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"done"}) || offset != 5 {
		t.Fatalf("truncated ReadFrom = %q @%d", lines, offset)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subremux-x.log")
	writeLog(t, path, "first\n", time.Now())
	_, offset, err := Last(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Follow returned %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(got, []string{"second"}) {
		t.Fatalf("followed lines = %q", got)
	}
}
