package importer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractTable unpacks the first entry of the zip archive at src that a
// reader can handle (of type typ when set) into dir and returns its path.
func extractTable(src, dir, typ string) (string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(filepath.Base(f.Name), ".") {
			continue
		}
		rd, err := ForPath(f.Name)
		if err != nil || (typ != "" && rd.Type() != typ) {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(f.Name))
		if err := extractFile(f, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("no tabular file in %s", filepath.Base(src))
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
