package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func init() {
	Register(xlsxReader{})
}

// xlsxReader reads one worksheet of an Office Open XML workbook: the sheet
// named in the format, or the first one.
type xlsxReader struct{}

func (xlsxReader) Type() string         { return "xlsx" }
func (xlsxReader) Extensions() []string { return []string{".xlsx", ".xlsm"} }

func (xlsxReader) Read(ctx context.Context, src io.Reader, f Format) (*Table, error) {
	wb, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheet := f.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return split(rows, f), nil
}
