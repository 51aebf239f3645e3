// CLAUDE:SUMMARY Holds the current searchable snapshot (records, field registry, engine index) and serves highlighted searches.
package collection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hazyhaar/kanaseek/pkg/engine"
	"github.com/hazyhaar/kanaseek/pkg/highlight"
	"github.com/hazyhaar/kanaseek/pkg/metrics"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
)

// ErrNotReady is returned by Search before the first successful Rebuild.
var ErrNotReady = errors.New("collection not built")

// Options configure a Collection.
type Options struct {
	MinScore float64 // engine score floor
	MaxLimit int     // cap on per-search limit, 0 = none
}

// snapshot is one immutable build of the collection.
type snapshot struct {
	records    []record.EnrichedRecord
	fields     record.FieldRegistry
	index      *engine.Index
	strategy   tokenize.Strategy
	generation uint64
	builtAt    time.Time
}

// Collection serves searches over the latest snapshot. Rebuild replaces the
// snapshot wholesale; searches in flight finish on the one they started with.
type Collection struct {
	mu   sync.RWMutex
	snap *snapshot
	gen  uint64
	opts Options
}

// New creates an empty collection.
func New(opts Options) *Collection {
	return &Collection{opts: opts}
}

// Rebuild expands raws with strategy, indexes them and swaps the result in.
// On error the previous snapshot stays in place.
func (c *Collection) Rebuild(raws []record.RawRecord, strategy tokenize.Strategy) error {
	docs, fields, err := record.Expand(raws, strategy)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("rebuild: %w", err)
	}
	snap := &snapshot{
		records:  docs,
		fields:   fields,
		index:    engine.NewIndex(docs, fields, engine.Options{MinScore: c.opts.MinScore}),
		strategy: strategy,
		builtAt:  time.Now(),
	}

	c.mu.Lock()
	c.gen++
	snap.generation = c.gen
	c.snap = snap
	c.mu.Unlock()

	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	metrics.CollectionRecords.Set(float64(len(docs)))
	return nil
}

// FieldHighlight is the reconstructed text of one original field.
type FieldHighlight struct {
	Field    string         `json:"field"`
	Segments highlight.Text `json:"segments"`
}

// Hit is one search result with every original field highlighted.
type Hit struct {
	Ref        int                `json:"ref"`
	Score      float64            `json:"score"`
	Record     record.RawRecord   `json:"record"`
	Matches    []record.MatchSpan `json:"matches,omitempty"`
	Highlights []FieldHighlight   `json:"highlights"`
}

// Response is the outcome of one search. Generation identifies the snapshot
// it was computed on; callers holding a newer generation should drop it.
type Response struct {
	Query      string     `json:"query"`
	Built      string     `json:"built_query"`
	Mode       query.Mode `json:"mode"`
	Tokenizer  string     `json:"tokenizer"`
	Generation uint64     `json:"generation"`
	Total      int        `json:"total"`
	Hits       []Hit      `json:"hits"`
}

// Search builds the engine query for raw, runs it and reconstructs the
// highlighted text of each hit. limit <= 0 returns every hit.
// Engine query errors are returned unchanged.
func (c *Collection) Search(raw string, mode query.Mode, limit int) (*Response, error) {
	start := time.Now()
	resp, err := c.search(raw, mode, limit)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchesTotal.WithLabelValues(mode.String(), status).Inc()
	metrics.SearchDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	return resp, err
}

func (c *Collection) search(raw string, mode query.Mode, limit int) (*Response, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap == nil {
		return nil, ErrNotReady
	}

	built := query.Build(raw, mode, snap.strategy)
	results, err := snap.index.Search(built)
	if err != nil {
		return nil, err
	}

	if c.opts.MaxLimit > 0 && (limit <= 0 || limit > c.opts.MaxLimit) {
		limit = c.opts.MaxLimit
	}
	resp := &Response{
		Query:      raw,
		Built:      built,
		Mode:       mode,
		Tokenizer:  snap.strategy.String(),
		Generation: snap.generation,
		Total:      len(results),
		Hits:       []Hit{},
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	originals := snap.fields.Originals()
	for _, res := range results {
		hit := Hit{
			Ref:        res.RefIndex,
			Score:      res.Score,
			Record:     res.Document.Original,
			Matches:    res.Matches,
			Highlights: make([]FieldHighlight, len(originals)),
		}
		for i, field := range originals {
			hit.Highlights[i] = FieldHighlight{
				Field:    field,
				Segments: highlight.Reconstruct(res.Document.Original, res.Matches, field, mode),
			}
		}
		resp.Hits = append(resp.Hits, hit)
	}
	return resp, nil
}

// Fields returns the field registry of the current snapshot.
func (c *Collection) Fields() (record.FieldRegistry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return record.FieldRegistry{}, false
	}
	return c.snap.fields, true
}

// Stats describes the current snapshot.
type Stats struct {
	Ready      bool      `json:"ready"`
	Records    int       `json:"records"`
	Fields     int       `json:"fields"`
	Tokenizer  string    `json:"tokenizer,omitempty"`
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
}

// Stats returns a description of the current snapshot.
func (c *Collection) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return Stats{}
	}
	return Stats{
		Ready:      true,
		Records:    len(c.snap.records),
		Fields:     len(c.snap.fields.Originals()),
		Tokenizer:  c.snap.strategy.String(),
		Generation: c.snap.generation,
		BuiltAt:    c.snap.builtAt,
	}
}
