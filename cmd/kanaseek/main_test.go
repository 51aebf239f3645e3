package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placesCSV = "title,city\nTokyo Tower,東京\nOsaka Castle,大阪\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = io.Discard
	full := append([]string{"kanaseek", "--log-level", "error", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	err := app.Run(full)
	return buf.String(), err
}

func TestSetupLogger_Invalid(t *testing.T) {
	app := newApp()
	app.ErrWriter = io.Discard
	err := app.Run([]string{"kanaseek", "--log-level", "loud", "history"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := writeFile(t, t.TempDir(), "config.yaml", `addr: ":9000"
dataset: data/places.yaml
watch: false
watch_interval: 30s
search:
  mode: or
  limit: 5
  min_score: 0.2
batch_workers: 0
`)
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "data/places.yaml", cfg.Dataset)
	assert.Equal(t, "kanaseek.db", cfg.HistoryDB)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.Equal(t, query.Or, cfg.Search.Mode)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.InDelta(t, 0.2, cfg.Search.MinScore, 1e-9)
	assert.Equal(t, 1, cfg.BatchWorkers)

	bad := writeFile(t, t.TempDir(), "bad.yaml", "search:\n  mode: sideways\n")
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestSearchCommand_JSON(t *testing.T) {
	src := writeFile(t, t.TempDir(), "places.csv", placesCSV)

	out, err := run(t, "search", "--dataset", src, "--json", "tokyo")
	require.NoError(t, err)

	var resp collection.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "'tokyo", resp.Built)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, 0, resp.Hits[0].Ref)
	assert.Equal(t, []string{"Tokyo"}, resp.Hits[0].Highlights[0].Segments.Marked())
}

func TestSearchCommand_Text(t *testing.T) {
	src := writeFile(t, t.TempDir(), "places.csv", placesCSV)

	out, err := run(t, "search", "--dataset", src, "--mode", "or", "tokyo", "大阪")
	require.NoError(t, err)
	assert.Contains(t, out, "2 hit(s)")
	assert.Contains(t, out, "#0")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Osaka Castle")
}

func TestSearchCommand_Errors(t *testing.T) {
	src := writeFile(t, t.TempDir(), "places.csv", placesCSV)

	_, err := run(t, "search", "--dataset", src)
	assert.Error(t, err)
	_, err = run(t, "search", "--dataset", src, "--mode", "sideways", "tokyo")
	assert.Error(t, err)
	_, err = run(t, "search", "--dataset", src, "--tokenizer", "bigram", "tokyo")
	assert.Error(t, err)
	_, err = run(t, "search", "--dataset", filepath.Join(t.TempDir(), "missing.csv"), "tokyo")
	assert.Error(t, err)
}

func TestInitThenSearch(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "places.csv", "name\n東京タワー\n大阪城\n")

	out, err := run(t, "init", "--tokenizer", "ngram3", src)
	require.NoError(t, err)
	assert.Contains(t, out, "dataset.yaml")

	m, err := importer.LoadManifest(filepath.Join(dir, "dataset.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "places", m.ID)
	assert.Equal(t, "csv", m.Format.Type)
	assert.Equal(t, src, m.Source)

	out, err = run(t, "search", "--dataset", filepath.Join(dir, "dataset.yaml"), "--json", "ﾀﾜｰ")
	require.NoError(t, err)
	var resp collection.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ngram3", resp.Tokenizer)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, []string{"タワー"}, resp.Hits[0].Highlights[0].Segments.Marked())
}

func TestLoaderHistory(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "places.csv", placesCSV)
	dbPath := filepath.Join(dir, "history.db")

	h, err := importer.OpenHistoryDB(dbPath)
	require.NoError(t, err)

	coll := collection.New(collection.Options{})
	ld := &loader{path: src, coll: coll, history: h, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	require.NoError(t, ld.Reload(context.Background()))
	assert.Equal(t, 2, coll.Stats().Records)

	// A broken source fails the run but keeps the previous snapshot.
	writeFile(t, dir, "places.csv", "title,title\nx,y\n")
	require.Error(t, ld.Reload(context.Background()))
	assert.Equal(t, uint64(1), coll.Stats().Generation)

	runs, err := h.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, importer.StatusFailed, runs[0].Status)
	assert.Equal(t, importer.StatusOK, runs[1].Status)
	assert.Equal(t, 2, runs[1].Records)
	require.NoError(t, h.Close())

	out, err := run(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "places")
	assert.Contains(t, out, "failed")

	targets, err := ld.Targets()
	require.NoError(t, err)
	assert.Equal(t, []string{src}, targets)
}
