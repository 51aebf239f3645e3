// CLAUDE:SUMMARY Dataset loading: resolve the source (local path or HTTP download with retries), pick a reader, build raw records.
package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/record"
)

// Dataset is the decoded content of one manifest.
type Dataset struct {
	Manifest *Manifest
	Format   string
	Fields   []string
	Records  []record.RawRecord
}

// Load reads the dataset described by m. Remote sources are downloaded to a
// temporary directory first; zip archives are unpacked there too.
func Load(ctx context.Context, m *Manifest) (*Dataset, error) {
	dir, err := os.MkdirTemp("", "kanaseek-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := m.Source
	if isRemote(src) {
		dest := filepath.Join(dir, remoteName(src))
		if err := downloadFile(ctx, src, dest); err != nil {
			return nil, err
		}
		src = dest
	}
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		if src, err = extractTable(src, dir, strings.ToLower(m.Format.Type)); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", m.ID, err)
		}
	}

	rd, err := readerFor(m, src)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	table, err := rd.Read(ctx, f, m.Format)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", m.ID, err)
	}
	records, err := table.Records()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", m.ID, err)
	}
	return &Dataset{
		Manifest: m,
		Format:   rd.Type(),
		Fields:   records[0].Names(),
		Records:  records,
	}, nil
}

// remoteName is the file name of a URL's path, without its query.
func remoteName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "download"
	}
	return path.Base(u.Path)
}

func readerFor(m *Manifest, src string) (Reader, error) {
	if m.Format.Type != "" {
		return Get(m.Format.Type)
	}
	return ForPath(src)
}

const downloadAttempts = 3

// retryUnit scales the download backoff; tests shrink it.
var retryUnit = time.Second

var downloadClient = &http.Client{Timeout: 10 * time.Minute}

// downloadFile fetches url into dest, retrying transport errors and non-200
// answers with exponential backoff.
func downloadFile(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := range downloadAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * retryUnit):
			}
		}
		retry, err := fetchOnce(ctx, url, dest)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("download %s failed after %d attempts: %w", url, downloadAttempts, lastErr)
}

func fetchOnce(ctx context.Context, url, dest string) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return false, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return true, err
	}
	return false, f.Close()
}
