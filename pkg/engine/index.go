// CLAUDE:SUMMARY In-memory extended-syntax fuzzy engine over enriched records; reports per-key match spans and a score.
package engine

import (
	"sort"
	"unicode/utf8"

	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/textnorm"
	"github.com/sahilm/fuzzy"
)

// fuzzyWeight scales fuzzy scores below literal matches of equal coverage.
const fuzzyWeight = 0.5

// Options tune a search.
type Options struct {
	Limit    int     // 0 = no limit
	MinScore float64 // results scoring below are dropped
}

// Result is one matching document.
type Result struct {
	RefIndex int                   `json:"ref"`
	Document record.EnrichedRecord `json:"-"`
	Matches  []record.MatchSpan    `json:"matches"`
	Score    float64               `json:"score"`
}

// Index searches a fixed collection on the keys of a field registry.
// It is read-only after construction and safe for concurrent use.
type Index struct {
	docs   []record.EnrichedRecord
	keys   []string
	fields record.FieldRegistry
	opts   Options
}

// NewIndex indexes docs on every key of fields.
func NewIndex(docs []record.EnrichedRecord, fields record.FieldRegistry, opts Options) *Index {
	return &Index{docs: docs, keys: fields.Keys(), fields: fields, opts: opts}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Search evaluates q against every document. Results are ordered by
// descending score, ties in collection order. An empty query matches nothing.
func (ix *Index) Search(q string) ([]Result, error) {
	groups, err := parse(q)
	if err != nil {
		return nil, err
	}
	results := []Result{}
	if len(groups) == 0 {
		return results, nil
	}

	for i, doc := range ix.docs {
		res, ok := ix.evaluate(doc, groups)
		if !ok || res.Score < ix.opts.MinScore {
			continue
		}
		res.RefIndex = i
		res.Document = doc
		results = append(results, res)
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if ix.opts.Limit > 0 && len(results) > ix.opts.Limit {
		results = results[:ix.opts.Limit]
	}
	return results, nil
}

// hit is one term matching one candidate string of one key.
type hit struct {
	key    int
	elem   int
	token  string
	ranges []record.Range
}

// evaluate scores doc against the OR branches. The score is that of the best
// satisfied branch; matches are the union over satisfied branches.
func (ix *Index) evaluate(doc record.EnrichedRecord, groups [][]term) (Result, bool) {
	var (
		best    float64
		matched bool
		hits    []hit
	)
	for _, g := range groups {
		gh, score, ok := ix.evalGroup(doc, g)
		if !ok {
			continue
		}
		matched = true
		if score > best {
			best = score
		}
		hits = append(hits, gh...)
	}
	if !matched {
		return Result{}, false
	}
	return Result{Matches: ix.spans(doc, hits), Score: best}, true
}

// evalGroup requires every term of g. The group score is the mean of the
// best score of each positive term.
func (ix *Index) evalGroup(doc record.EnrichedRecord, g []term) ([]hit, float64, bool) {
	var (
		hits   []hit
		total  float64
		scored int
	)
	for _, t := range g {
		if t.kind == termInverse {
			if ix.includes(doc, t.pattern) {
				return nil, 0, false
			}
			continue
		}
		th, score := ix.matchTerm(doc, t)
		if len(th) == 0 {
			return nil, 0, false
		}
		hits = append(hits, th...)
		total += score
		scored++
	}
	if scored == 0 {
		return nil, 1, true
	}
	return hits, total / float64(scored), true
}

func (ix *Index) matchTerm(doc record.EnrichedRecord, t term) ([]hit, float64) {
	var (
		hits []hit
		best float64
	)
	ix.eachCandidate(doc, func(key, elem int, c string, tokenized bool, total int) bool {
		ranges, score, ok := matchCandidate(t, c, total)
		if !ok {
			return true
		}
		h := hit{key: key, elem: elem, ranges: ranges}
		if tokenized {
			h.token = c
		}
		hits = append(hits, h)
		if score > best {
			best = score
		}
		return true
	})
	return hits, best
}

func (ix *Index) includes(doc record.EnrichedRecord, pattern []rune) bool {
	found := false
	ix.eachCandidate(doc, func(_, _ int, c string, _ bool, _ int) bool {
		found = indexRunes(lowerRunes(c), pattern) >= 0
		return !found
	})
	return found
}

// eachCandidate calls fn for every string stored under every key, stopping
// when fn returns false. Tokenized keys yield one candidate per token.
// total is the rune length of the whole value, all tokens included, so a
// token hit covers no more of the field than the same text hit would.
func (ix *Index) eachCandidate(doc record.EnrichedRecord, fn func(key, elem int, c string, tokenized bool, total int) bool) {
	for k, key := range ix.keys {
		v, ok := doc.Lookup(key)
		if !ok {
			continue
		}
		if !v.Tokenized {
			if !fn(k, 0, v.Text, false, utf8.RuneCountInString(v.Text)) {
				return
			}
			continue
		}
		total := 0
		for _, tok := range v.Tokens {
			total += utf8.RuneCountInString(tok)
		}
		for e, tok := range v.Tokens {
			if !fn(k, e, tok, true, total) {
				return
			}
		}
	}
}

// spans folds hits into one MatchSpan per key and candidate, in registry
// order, so spans for one field are always contiguous. Ranges found in a
// search_ form are reported against the original text; a span whose ranges
// cannot be mapped back is dropped.
func (ix *Index) spans(doc record.EnrichedRecord, hits []hit) []record.MatchSpan {
	type slot struct{ key, elem int }
	bySlot := make(map[slot]*record.MatchSpan)
	var order []slot
	for _, h := range hits {
		s := slot{h.key, h.elem}
		span, ok := bySlot[s]
		if !ok {
			span = &record.MatchSpan{Key: ix.keys[h.key], Value: h.token}
			bySlot[s] = span
			order = append(order, s)
		}
		span.Indices = append(span.Indices, h.ranges...)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].key != order[j].key {
			return order[i].key < order[j].key
		}
		return order[i].elem < order[j].elem
	})

	out := make([]record.MatchSpan, 0, len(order))
	for _, s := range order {
		span := bySlot[s]
		if field, kind, _ := ix.fields.Resolve(span.Key); kind == record.KindSearch {
			text, _ := doc.Original.Get(field)
			span.Indices = toOriginal(text, span.Indices)
			if len(span.Indices) == 0 {
				continue
			}
		}
		span.Indices = mergeRanges(span.Indices)
		out = append(out, *span)
	}
	return out
}

// toOriginal maps ranges over Normalize(text) onto text.
func toOriginal(text string, rs []record.Range) []record.Range {
	_, align := textnorm.Align(text)
	out := make([]record.Range, 0, len(rs))
	for _, r := range rs {
		if start, end, ok := align.Original(r.Start, r.End); ok {
			out = append(out, record.Range{Start: start, End: end})
		}
	}
	return out
}

// matchCandidate matches t against c. Scores are the share of the whole
// value (total runes) the match covers.
func matchCandidate(t term, c string, total int) ([]record.Range, float64, bool) {
	hay := lowerRunes(c)
	n, p := len(hay), len(t.pattern)
	if n == 0 || p > n {
		return nil, 0, false
	}
	if total < n {
		total = n
	}
	coverage := float64(p) / float64(total)

	switch t.kind {
	case termInclude:
		at := indexRunes(hay, t.pattern)
		if at < 0 {
			return nil, 0, false
		}
		return []record.Range{{Start: at, End: at + p - 1}}, coverage, true
	case termExact:
		if !equalRunes(hay, t.pattern) {
			return nil, 0, false
		}
		return []record.Range{{Start: 0, End: n - 1}}, coverage, true
	case termPrefix:
		if !equalRunes(hay[:p], t.pattern) {
			return nil, 0, false
		}
		return []record.Range{{Start: 0, End: p - 1}}, coverage, true
	case termSuffix:
		if !equalRunes(hay[n-p:], t.pattern) {
			return nil, 0, false
		}
		return []record.Range{{Start: n - p, End: n - 1}}, coverage, true
	case termFuzzy:
		return fuzzyMatch(t.pattern, string(hay))
	}
	return nil, 0, false
}

// fuzzyMatch runs a subsequence match scored by how tightly the matched
// runes sit.
func fuzzyMatch(pattern []rune, lowered string) ([]record.Range, float64, bool) {
	matches := fuzzy.Find(string(pattern), []string{lowered})
	if len(matches) == 0 || len(matches[0].MatchedIndexes) == 0 {
		return nil, 0, false
	}
	offsets := runeOffsets(lowered, matches[0].MatchedIndexes)
	if len(offsets) == 0 {
		return nil, 0, false
	}
	spread := offsets[len(offsets)-1] - offsets[0] + 1
	return toRanges(offsets), fuzzyWeight * float64(len(offsets)) / float64(spread), true
}
