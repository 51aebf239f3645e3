// CLAUDE:SUMMARY Watches dataset sources (local files via fsnotify, remote URLs via periodic HEAD) and triggers debounced reloads.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invokes a reload callback when a watched source changes.
type Watcher struct {
	logger   *slog.Logger
	reload   func(context.Context) error
	debounce time.Duration
	interval time.Duration
	client   *http.Client
	etags    map[string]string
}

// NewWatcher creates a Watcher. Local changes are coalesced over debounce;
// remote sources are polled every interval.
func NewWatcher(logger *slog.Logger, debounce, interval time.Duration, reload func(context.Context) error) *Watcher {
	return &Watcher{
		logger:   logger,
		reload:   reload,
		debounce: debounce,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		etags:    make(map[string]string),
	}
}

// Start watches targets (file paths or http(s) URLs) until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, targets ...string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	files := make(map[string]bool)
	var remote []string
	for _, t := range targets {
		if isRemote(t) {
			remote = append(remote, t)
			continue
		}
		abs, err := filepath.Abs(t)
		if err != nil {
			return fmt.Errorf("watch %s: %w", t, err)
		}
		// Editors replace files by rename, so the directory is watched.
		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", t, err)
		}
		files[abs] = true
	}

	var tick <-chan time.Time
	if len(remote) > 0 {
		w.poll(ctx, remote)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(ctx, "file changed")

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-tick:
			if w.poll(ctx, remote) {
				w.trigger(ctx, "remote source changed")
			}
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, reason string) {
	w.logger.Info("reloading dataset", "reason", reason)
	if err := w.reload(ctx); err != nil {
		w.logger.Error("reload failed", "error", err)
	}
}

// poll sends a HEAD request to every url and reports whether any of them
// changed since the previous poll. The first observation never counts.
func (w *Watcher) poll(ctx context.Context, urls []string) bool {
	changed := false
	for _, url := range urls {
		if ctx.Err() != nil {
			return false
		}
		tag, err := w.version(ctx, url)
		if err != nil {
			w.logger.Warn("source unreachable", "url", url, "error", err)
			continue
		}
		prev, seen := w.etags[url]
		w.etags[url] = tag
		if seen && prev != tag {
			changed = true
		}
	}
	return changed
}

// version identifies the current content of url from its validators.
func (w *Watcher) version(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HEAD %s: HTTP %d", url, resp.StatusCode)
	}
	return resp.Header.Get("ETag") + "|" + resp.Header.Get("Last-Modified") + "|" + resp.Header.Get("Content-Length"), nil
}
