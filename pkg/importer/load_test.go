package importer

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
)

func init() {
	retryUnit = time.Millisecond
}

const placesCSV = "title,city\nTokyo Tower,Tokyo\nOsaka Castle,Osaka\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestDownloadFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(placesCSV))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "places.csv")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != placesCSV {
		t.Errorf("content = %q", string(data))
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := downloadFile(context.Background(), ts.URL, filepath.Join(t.TempDir(), "fail.txt"))
	if err == nil {
		t.Fatal("expected error after all retries exhausted")
	}
	if attempts != downloadAttempts {
		t.Errorf("attempts = %d, want %d", attempts, downloadAttempts)
	}
}

func TestDownloadFile_Cancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := downloadFile(ctx, ts.URL, filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLoad_Local(t *testing.T) {
	src := writeFile(t, t.TempDir(), "places.csv", placesCSV)

	m, err := ResolveManifest(src)
	if err != nil {
		t.Fatalf("ResolveManifest: %v", err)
	}
	if m.ID != "places" {
		t.Fatalf("ID = %q", m.ID)
	}

	ds, err := Load(context.Background(), m)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Format != "csv" || len(ds.Records) != 2 {
		t.Fatalf("format=%s records=%d", ds.Format, len(ds.Records))
	}
	if len(ds.Fields) != 2 || ds.Fields[0] != "title" {
		t.Fatalf("fields = %v", ds.Fields)
	}
}

func TestLoad_FormatOverride(t *testing.T) {
	src := writeFile(t, t.TempDir(), "places.data", "title\tcity\nTokyo Tower\tTokyo\n")

	ds, err := Load(context.Background(), &Manifest{ID: "p", Source: src, Format: Format{Type: "TSV"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := ds.Records[0].Get("city"); v != "Tokyo" {
		t.Fatalf("city = %q", v)
	}

	if _, err := Load(context.Background(), &Manifest{ID: "p", Source: src}); err == nil {
		t.Fatal("expected error without a reader for .data")
	}
}

func TestLoad_Remote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(placesCSV))
	}))
	defer ts.Close()

	ds, err := Load(context.Background(), &Manifest{ID: "remote", Source: ts.URL + "/export/places.csv?dl=1"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("records = %d", len(ds.Records))
	}
}

func TestLoad_Zip(t *testing.T) {
	dir := t.TempDir()
	zpath := filepath.Join(dir, "export.zip")
	f, err := os.Create(zpath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"README.md":         "not a table",
		"export/places.csv": placesCSV,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create: %v", err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
	f.Close()

	ds, err := Load(context.Background(), &Manifest{ID: "zipped", Source: zpath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Format != "csv" || len(ds.Records) != 2 {
		t.Fatalf("format=%s records=%d", ds.Format, len(ds.Records))
	}

	if _, err := Load(context.Background(), &Manifest{ID: "zipped", Source: zpath, Format: Format{Type: "xlsx"}}); err == nil {
		t.Fatal("expected error when the archive has no xlsx entry")
	}
}

func TestLoad_Malformed(t *testing.T) {
	src := writeFile(t, t.TempDir(), "empty.csv", "title\n")

	_, err := Load(context.Background(), &Manifest{ID: "empty", Source: src})
	if !errors.Is(err, record.ErrMalformedInput) {
		t.Fatalf("err = %v, want malformed input", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "places.tsv", "title\tcity\nTokyo Tower\tTokyo\n")
	path := writeFile(t, dir, "dataset.yaml", `id: places
source: places.tsv
format:
  type: tsv
  encoding: utf-8
tokenizer: ngram3
`)

	m, err := ResolveManifest(path)
	if err != nil {
		t.Fatalf("ResolveManifest: %v", err)
	}
	if m.Source != filepath.Join(dir, "places.tsv") {
		t.Fatalf("Source = %q", m.Source)
	}
	if m.Tokenizer != tokenize.NGram3 {
		t.Fatalf("Tokenizer = %v", m.Tokenizer)
	}
	if !m.Format.Header() {
		t.Fatal("has_header should default to true")
	}

	ds, err := Load(context.Background(), m)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("records = %d", len(ds.Records))
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"noid.yaml":     "source: a.csv\n",
		"nosource.yaml": "id: x\n",
		"badtok.yaml":   "id: x\nsource: a.csv\ntokenizer: bigram\n",
		"broken.yaml":   "id: [\n",
	}
	for name, content := range tests {
		path := writeFile(t, dir, name, content)
		if _, err := LoadManifest(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadManifest(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	noHeader := false
	m := &Manifest{
		ID:        "places",
		Source:    "https://example.com/places.csv",
		Format:    Format{Type: "csv", Encoding: "shift_jis", HasHeader: &noHeader},
		Tokenizer: tokenize.NGram3,
	}
	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	loaded, err := LoadManifest(filepath.Join(dir, "dataset.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.Source != m.Source {
		t.Errorf("remote source should be kept as is, got %q", loaded.Source)
	}
	if loaded.Format.Header() || loaded.Format.Encoding != "shift_jis" {
		t.Errorf("format = %+v", loaded.Format)
	}
	if loaded.Tokenizer != tokenize.NGram3 {
		t.Errorf("tokenizer = %v", loaded.Tokenizer)
	}
}
