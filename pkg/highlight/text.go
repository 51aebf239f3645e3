// Package highlight rebuilds field text with match regions marked from the
// spans an engine reports.
package highlight

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Segment is a run of text, marked or not.
type Segment struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

// Text is field text split into ordered segments. Marked segments never
// overlap. The zero value is empty text.
type Text []Segment

// Plain returns s as a single unmarked segment.
func Plain(s string) Text {
	if s == "" {
		return Text{}
	}
	return Text{{Text: s}}
}

// String returns the text without markers.
func (t Text) String() string {
	var b strings.Builder
	for _, seg := range t {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Highlighted reports whether any segment is marked.
func (t Text) Highlighted() bool {
	for _, seg := range t {
		if seg.Highlighted {
			return true
		}
	}
	return false
}

// Marked returns the marked substrings in order.
func (t Text) Marked() []string {
	var out []string
	for _, seg := range t {
		if seg.Highlighted {
			out = append(out, seg.Text)
		}
	}
	return out
}

// HTML renders the text with every marked run wrapped in
// <span class="class">. All text is escaped.
func (t Text) HTML(class string) string {
	var b strings.Builder
	for _, seg := range t {
		if seg.Highlighted {
			b.WriteString(`<span class="`)
			b.WriteString(html.EscapeString(class))
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(seg.Text))
			b.WriteString(`</span>`)
			continue
		}
		b.WriteString(html.EscapeString(seg.Text))
	}
	return b.String()
}

// Render styles marked runs with style, for terminal output.
func (t Text) Render(style lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range t {
		if seg.Highlighted {
			b.WriteString(style.Render(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// markFirst marks the first occurrence of sub that lies entirely inside an
// unmarked segment. It reports false when there is none.
func (t Text) markFirst(sub string) (Text, bool) {
	if sub == "" {
		return t, false
	}
	for i, seg := range t {
		if seg.Highlighted {
			continue
		}
		at := strings.Index(seg.Text, sub)
		if at < 0 {
			continue
		}
		split := make(Text, 0, len(t)+2)
		split = append(split, t[:i]...)
		if at > 0 {
			split = append(split, Segment{Text: seg.Text[:at]})
		}
		split = append(split, Segment{Text: sub, Highlighted: true})
		if rest := seg.Text[at+len(sub):]; rest != "" {
			split = append(split, Segment{Text: rest})
		}
		split = append(split, t[i+1:]...)
		return split, true
	}
	return t, false
}
