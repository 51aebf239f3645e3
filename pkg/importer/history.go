package importer

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one row of the import_runs table.
type Run struct {
	ID         int64   `json:"id"`
	Dataset    string  `json:"dataset"`
	Source     string  `json:"source"`
	Format     string  `json:"format"`
	Tokenizer  string  `json:"tokenizer"`
	Records    int     `json:"records"`
	Fields     int     `json:"fields"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt *int64  `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or 0 while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return time.Duration(*r.FinishedAt-r.StartedAt) * time.Millisecond
}

// HistoryDB records import runs in SQLite. Only metadata is stored, never
// the documents themselves.
type HistoryDB struct {
	db *sql.DB
}

// OpenHistoryDB opens (or creates) the SQLite database at path and ensures
// the import_runs table exists.
func OpenHistoryDB(path string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS import_runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset     TEXT NOT NULL,
		source      TEXT NOT NULL,
		format      TEXT NOT NULL DEFAULT '',
		tokenizer   TEXT NOT NULL DEFAULT '',
		records     INTEGER NOT NULL DEFAULT 0,
		fields      INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		error       TEXT,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create import_runs table: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Begin inserts a running row for m and returns its id.
func (h *HistoryDB) Begin(m *Manifest) (int64, error) {
	res, err := h.db.Exec(
		`INSERT INTO import_runs (dataset, source, format, tokenizer, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Source, m.Format.Type, m.Tokenizer.String(), StatusRunning, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("begin run for %s: %w", m.ID, err)
	}
	return res.LastInsertId()
}

// Finish closes run id. A nil runErr marks it ok with the given counts.
func (h *HistoryDB) Finish(id int64, ds *Dataset, runErr error) error {
	status := StatusOK
	var errPtr *string
	var format string
	var records, fields int
	if runErr != nil {
		status = StatusFailed
		msg := runErr.Error()
		errPtr = &msg
	}
	if ds != nil {
		format, records, fields = ds.Format, len(ds.Records), len(ds.Fields)
	}

	res, err := h.db.Exec(
		`UPDATE import_runs SET status = ?, error = ?, records = ?, fields = ?,
			format = CASE WHEN ? = '' THEN format ELSE ? END, finished_at = ?
		WHERE id = ?`,
		status, errPtr, records, fields, format, format, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %d not found in import_runs", id)
	}
	return nil
}

// List returns the most recent runs first, at most limit (0 = all).
func (h *HistoryDB) List(limit int) ([]Run, error) {
	q := `SELECT id, dataset, source, format, tokenizer, records, fields, status,
		error, started_at, finished_at FROM import_runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Dataset, &r.Source, &r.Format, &r.Tokenizer,
			&r.Records, &r.Fields, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Last returns the most recent successful run of dataset, or sql.ErrNoRows.
func (h *HistoryDB) Last(dataset string) (Run, error) {
	var r Run
	err := h.db.QueryRow(`SELECT id, dataset, source, format, tokenizer, records, fields, status,
		error, started_at, finished_at FROM import_runs
		WHERE dataset = ? AND status = ? ORDER BY id DESC LIMIT 1`, dataset, StatusOK).
		Scan(&r.ID, &r.Dataset, &r.Source, &r.Format, &r.Tokenizer,
			&r.Records, &r.Fields, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return Run{}, fmt.Errorf("last run of %s: %w", dataset, err)
	}
	return r, nil
}
