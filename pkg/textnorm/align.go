package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Alignment maps rune offsets of Normalize(text) back to rune offsets of
// text. Normalization drops surrounding whitespace and composes voiced
// sound marks, so the two forms do not share offsets in general.
type Alignment struct {
	start []int
	end   []int
}

// Align returns Normalize(text) together with its alignment to text.
// The alignment is empty when the rune-wise rendering disagrees with
// Normalize; every lookup then fails.
func Align(text string) (string, Alignment) {
	orig := []rune(text)
	var (
		out []rune
		a   Alignment
	)
	for i := 0; i < len(orig); {
		j := i + 1
		for j < len(orig) && joinsPrevious(orig[j]) {
			j++
		}
		chunk, _, _ := transform.String(indexChain, string(orig[i:j]))
		for _, r := range strings.ToLower(chunk) {
			out = append(out, r)
			a.start = append(a.start, i)
			a.end = append(a.end, j-1)
		}
		i = j
	}

	lo, hi := 0, len(out)
	for lo < hi && unicode.IsSpace(out[lo]) {
		lo++
	}
	for hi > lo && unicode.IsSpace(out[hi-1]) {
		hi--
	}
	norm := string(out[lo:hi])
	if norm != Normalize(text) {
		return Normalize(text), Alignment{}
	}
	a.start, a.end = a.start[lo:hi], a.end[lo:hi]
	return norm, a
}

// Original maps the inclusive normalized rune range [start, end] to the
// inclusive rune range of the text it came from.
func (a Alignment) Original(start, end int) (int, int, bool) {
	if start < 0 || start > end || end >= len(a.end) {
		return 0, 0, false
	}
	return a.start[start], a.end[end], true
}

// joinsPrevious reports whether r composes with the rune before it once
// width folded (ﾞ and ﾟ fold to combining marks).
func joinsPrevious(r rune) bool {
	if f := width.LookupRune(r).Folded(); f != 0 {
		r = f
	}
	return unicode.Is(unicode.Mn, r)
}
