package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

func init() {
	Register(delimitedReader{typ: "csv", comma: ',', exts: []string{".csv", ".txt"}})
	Register(delimitedReader{typ: "tsv", comma: '\t', exts: []string{".tsv", ".tab"}})
}

// delimitedReader reads delimiter-separated text, optionally transcoding
// from a legacy encoding such as shift_jis.
type delimitedReader struct {
	typ   string
	comma rune
	exts  []string
}

func (d delimitedReader) Type() string         { return d.typ }
func (d delimitedReader) Extensions() []string { return d.exts }

func (d delimitedReader) Read(ctx context.Context, src io.Reader, f Format) (*Table, error) {
	src, err := decode(src, f.Encoding)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(src)
	r.Comma = d.comma
	if delim := f.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = !unicode.IsSpace(r.Comma)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", d.typ, err)
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return split(rows, f), nil
}

// decode wraps src with a decoder for enc. UTF-8 and "" pass through.
func decode(src io.Reader, enc string) (io.Reader, error) {
	if enc == "" || isUTF8(enc) {
		return src, nil
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
	}
	return transform.NewReader(src, e.NewDecoder()), nil
}

func isUTF8(enc string) bool {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "utf8", "utf8bom":
		return true
	}
	return false
}
