// CLAUDE:SUMMARY Reader registry: tabular decoders (csv, tsv, xlsx) keyed by format type and file extension.
package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/kanaseek/pkg/record"
)

// Table is a decoded sheet: a header row and data rows of cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Reader decodes one tabular format into a Table.
type Reader interface {
	// Type returns the format identifier used in manifests (e.g. "csv").
	Type() string
	// Extensions returns the file extensions handled, with the leading dot.
	Extensions() []string
	// Read decodes r according to f.
	Read(ctx context.Context, r io.Reader, f Format) (*Table, error)
}

var (
	registryMu sync.RWMutex
	readers    = make(map[string]Reader)
)

// Register adds a reader to the global registry.
func Register(r Reader) {
	registryMu.Lock()
	defer registryMu.Unlock()
	readers[r.Type()] = r
}

// Get returns a registered reader by format type.
func Get(typ string) (Reader, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := readers[strings.ToLower(typ)]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q", typ)
	}
	return r, nil
}

// ForPath returns the reader whose extensions match path.
func ForPath(path string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, r := range readers {
		for _, e := range r.Extensions() {
			if e == ext {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("no reader for extension %q", ext)
}

// All returns all registered readers sorted by type.
func All() []Reader {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Reader, 0, len(readers))
	for _, r := range readers {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type() < result[j].Type() })
	return result
}

// Records turns a table into raw records. Header cells are trimmed, short rows
// are padded with "", long rows are truncated and blank rows are skipped.
func (t *Table) Records() ([]record.RawRecord, error) {
	header := make([]string, len(t.Header))
	seen := make(map[string]bool, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		switch {
		case h == "":
			return nil, &record.MalformedInputError{Row: -1, Reason: fmt.Sprintf("empty header in column %d", i+1)}
		case seen[h]:
			return nil, &record.MalformedInputError{Row: -1, Field: h, Reason: "duplicate header"}
		}
		seen[h] = true
		header[i] = h
	}
	if len(header) == 0 {
		return nil, &record.MalformedInputError{Row: -1, Reason: "no header"}
	}

	out := make([]record.RawRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blank(row) {
			continue
		}
		out = append(out, record.NewRawRecord(header, row))
	}
	if len(out) == 0 {
		return nil, &record.MalformedInputError{Row: -1, Reason: "no data rows"}
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnNames returns col1..colN for headerless sources.
func columnNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("col%d", i+1)
	}
	return names
}

// split separates the header from the data rows according to f.
func split(rows [][]string, f Format) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	if !f.Header() {
		width := 0
		for _, r := range rows {
			width = max(width, len(r))
		}
		return &Table{Header: columnNames(width), Rows: rows}
	}
	return &Table{Header: rows[0], Rows: rows[1:]}
}
