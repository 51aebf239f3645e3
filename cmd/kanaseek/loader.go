// CLAUDE:SUMMARY Reload pipeline: resolve manifest, load the dataset, rebuild the collection and record the run in history.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
)

// loader turns the configured dataset into collection snapshots.
type loader struct {
	path      string
	coll      *collection.Collection
	history   *importer.HistoryDB // optional
	logger    *slog.Logger
	tokenizer *tokenize.Strategy // overrides the manifest when set

	mu sync.Mutex
}

// Reload loads the dataset and swaps it into the collection. Concurrent
// calls are serialized; on failure the previous snapshot keeps serving.
func (l *loader) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := importer.ResolveManifest(l.path)
	if err != nil {
		return err
	}
	if l.tokenizer != nil {
		m.Tokenizer = *l.tokenizer
	}

	var runID int64
	if l.history != nil {
		if runID, err = l.history.Begin(m); err != nil {
			l.logger.Warn("history unavailable", "error", err)
		}
	}

	ds, err := importer.Load(ctx, m)
	if err == nil {
		err = l.coll.Rebuild(ds.Records, m.Tokenizer)
	}

	if runID != 0 {
		if herr := l.history.Finish(runID, ds, err); herr != nil {
			l.logger.Warn("history unavailable", "error", herr)
		}
	}
	if err != nil {
		return fmt.Errorf("reload %s: %w", m.ID, err)
	}

	st := l.coll.Stats()
	l.logger.Info("dataset loaded",
		"dataset", m.ID,
		"format", ds.Format,
		"records", st.Records,
		"fields", st.Fields,
		"tokenizer", st.Tokenizer,
		"generation", st.Generation,
	)
	return nil
}

// Targets returns what a watcher should observe: the manifest itself and
// the source it points to.
func (l *loader) Targets() ([]string, error) {
	m, err := importer.ResolveManifest(l.path)
	if err != nil {
		return nil, err
	}
	targets := []string{m.Source}
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".yaml", ".yml":
		targets = append(targets, l.path)
	}
	return targets, nil
}
