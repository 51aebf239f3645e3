package engine

import (
	"strings"
	"unicode"
)

type termKind int

const (
	termFuzzy termKind = iota
	termInclude
	termExact
	termPrefix
	termSuffix
	termInverse
)

// term is one whitespace-separated operand of the extended syntax.
type term struct {
	kind    termKind
	pattern []rune // lower-cased
}

// parse splits q into OR branches of AND terms.
//
//	'x  include      =x  exact      ^x  prefix
//	x$  suffix       !x  exclude    x   fuzzy
func parse(q string) ([][]term, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	var groups [][]term
	for _, branch := range strings.Split(q, "|") {
		fields := strings.Fields(branch)
		if len(fields) == 0 {
			return nil, &QueryError{Query: q, Reason: "empty OR branch"}
		}
		group := make([]term, 0, len(fields))
		for _, f := range fields {
			t, ok := parseTerm(f)
			if !ok {
				return nil, &QueryError{Query: q, Reason: "operator without pattern in " + f}
			}
			group = append(group, t)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func parseTerm(f string) (term, bool) {
	var t term
	switch {
	case strings.HasPrefix(f, "!"):
		t.kind, f = termInverse, f[1:]
	case strings.HasPrefix(f, "'"):
		t.kind, f = termInclude, f[1:]
	case strings.HasPrefix(f, "="):
		t.kind, f = termExact, f[1:]
	case strings.HasPrefix(f, "^"):
		t.kind, f = termPrefix, f[1:]
	case len(f) > 1 && strings.HasSuffix(f, "$"):
		t.kind, f = termSuffix, f[:len(f)-1]
	default:
		t.kind = termFuzzy
	}
	if f == "" {
		return term{}, false
	}
	t.pattern = lowerRunes(f)
	return t, true
}

// lowerRunes lower-cases rune by rune so offsets stay aligned with the input.
func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}
