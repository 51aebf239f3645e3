package engine

import (
	"sort"

	"github.com/hazyhaar/kanaseek/pkg/record"
)

func indexRunes(hay, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if equalRunes(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runeOffsets converts byte offsets into s to rune offsets, dropping any
// that do not start a rune.
func runeOffsets(s string, byteIdx []int) []int {
	pos := make(map[int]int, len(s))
	ri := 0
	for bi := range s {
		pos[bi] = ri
		ri++
	}
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if r, ok := pos[b]; ok {
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}

// toRanges groups sorted offsets into runs of consecutive positions.
func toRanges(offsets []int) []record.Range {
	var out []record.Range
	for _, o := range offsets {
		if n := len(out); n > 0 && out[n-1].End+1 == o {
			out[n-1].End = o
			continue
		}
		out = append(out, record.Range{Start: o, End: o})
	}
	return out
}

// mergeRanges sorts ranges and merges the overlapping ones.
// Touching ranges stay apart so separate terms stay separate.
func mergeRanges(rs []record.Range) []record.Range {
	if len(rs) < 2 {
		return rs
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].End < rs[j].End
	})
	out := []record.Range{rs[0]}
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
