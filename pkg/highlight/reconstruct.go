package highlight

import (
	"sort"

	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/textnorm"
)

// Reconstruct returns the text of field target in rec with the regions
// reported by spans marked.
//
// A span belongs to target when its key is target, search_<target> or
// tokenized_<target>. Text spans come first, widest first, then tokenized
// spans in engine order. Text spans mark the first occurrence of each
// indexed slice of the original text, and the first text span that marks
// anything ends processing. Tokenized spans mark the first occurrence of
// their token, or of its katakana rendering when the token itself is
// absent; they are ignored in OR mode.
//
// Nothing found means nothing marked: the original text is returned as is.
func Reconstruct(rec record.RawRecord, spans []record.MatchSpan, target string, mode query.Mode) Text {
	orig, ok := rec.Get(target)
	if !ok {
		return Text{}
	}
	out := Plain(orig)
	runes := []rune(orig)

	for _, span := range spansFor(spans, target) {
		if span.Key == record.TokenizedKey(target) {
			if mode == query.Or {
				continue
			}
			out, _ = markToken(out, span.Value)
			continue
		}

		applied := false
		for _, r := range span.Indices {
			var ok bool
			out, ok = markToken(out, slice(runes, r))
			applied = applied || ok
		}
		if applied {
			break
		}
	}
	return out
}

// spansFor keeps the spans addressed to target: text spans ordered by the
// number of runes they cover, ties in engine order, then tokenized spans.
// Filtering instead of stopping at the first foreign key makes the result
// independent of how the engine groups spans.
func spansFor(spans []record.MatchSpan, target string) []record.MatchSpan {
	search, tokenized := record.SearchKey(target), record.TokenizedKey(target)
	var text, tokens []record.MatchSpan
	for _, s := range spans {
		switch s.Key {
		case target, search:
			text = append(text, s)
		case tokenized:
			tokens = append(tokens, s)
		}
	}
	sort.SliceStable(text, func(i, j int) bool { return covered(text[i]) > covered(text[j]) })
	return append(text, tokens...)
}

func covered(s record.MatchSpan) int {
	n := 0
	for _, r := range s.Indices {
		n += r.End - r.Start + 1
	}
	return n
}

// markToken marks tok, falling back to its katakana rendering so a
// hiragana token can light up katakana source text.
func markToken(t Text, tok string) (Text, bool) {
	if marked, ok := t.markFirst(tok); ok {
		return marked, true
	}
	return t.markFirst(textnorm.HiraganaToKatakana(tok))
}

// slice cuts the inclusive rune range r out of rs, clamped to bounds.
func slice(rs []rune, r record.Range) string {
	start, end := r.Start, r.End+1
	if start < 0 {
		start = 0
	}
	if end > len(rs) {
		end = len(rs)
	}
	if start >= end {
		return ""
	}
	return string(rs[start:end])
}
