package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startWatcher(t *testing.T, w *Watcher, targets ...string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, targets...) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Start: %v", err)
		}
	})
	// Let the goroutine register its watches.
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_LocalDebounced(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "places.csv", placesCSV)

	var reloads atomic.Int32
	w := NewWatcher(quietLogger(), 100*time.Millisecond, time.Hour, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	startWatcher(t, w, src)

	for range 3 {
		if err := os.WriteFile(src, []byte(placesCSV+"Kyoto Tower,Kyoto\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, func() bool { return reloads.Load() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Fatalf("reloads = %d, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "places.csv", placesCSV)

	var reloads atomic.Int32
	w := NewWatcher(quietLogger(), 20*time.Millisecond, time.Hour, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	startWatcher(t, w, src)

	writeFile(t, dir, "notes.txt", "unrelated")
	time.Sleep(200 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("reloads = %d, want 0", n)
	}
}

func TestWatcher_Remote(t *testing.T) {
	var version atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v`+string(rune('0'+version.Load()))+`"`)
	}))
	defer ts.Close()

	var reloads atomic.Int32
	w := NewWatcher(quietLogger(), time.Millisecond, 20*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	startWatcher(t, w, ts.URL+"/places.csv")

	time.Sleep(100 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("unchanged source reloaded %d times", n)
	}

	version.Store(1)
	waitFor(t, func() bool { return reloads.Load() == 1 })
}

func TestWatcher_MissingDir(t *testing.T) {
	w := NewWatcher(quietLogger(), time.Millisecond, time.Hour, func(context.Context) error { return nil })
	err := w.Start(context.Background(), filepath.Join(t.TempDir(), "nope", "places.csv"))
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
