// Package tokenize splits text into search tokens with one of two
// interchangeable strategies: morphological segmentation or 3-rune n-grams.
package tokenize

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hazyhaar/kanaseek/pkg/textnorm"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Strategy selects how text is cut into tokens.
type Strategy int

const (
	// Linguistic segments text on dictionary word boundaries.
	Linguistic Strategy = iota
	// NGram3 emits overlapping 3-rune windows.
	NGram3
)

const ngramSize = 3

func (s Strategy) String() string {
	switch s {
	case Linguistic:
		return "linguistic"
	case NGram3:
		return "ngram3"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration value to a Strategy.
// The empty string selects Linguistic.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linguistic", "segmenter":
		return Linguistic, nil
	case "ngram3", "trigram":
		return NGram3, nil
	default:
		return 0, fmt.Errorf("unknown tokenizer %q (want linguistic or ngram3)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var segmenter = sync.OnceValues(func() (*tokenizer.Tokenizer, error) {
	return tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
})

// Tokenize folds text with textnorm.FoldForQuery, splits it with the given
// strategy and returns the non-blank tokens in order, each converted to
// hiragana and lower-cased. Duplicates are kept.
func Tokenize(text string, s Strategy) []string {
	folded := textnorm.FoldForQuery(text)
	if folded == "" {
		return []string{}
	}

	var raw []string
	switch s {
	case Linguistic:
		raw = segment(folded)
	case NGram3:
		raw = ngrams(folded, ngramSize)
	default:
		panic(fmt.Sprintf("tokenize: unhandled strategy %v", s))
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(textnorm.KatakanaToHiragana(tok)))
	}
	return tokens
}

func segment(text string) []string {
	t, err := segmenter()
	if err != nil {
		// The IPA dictionary is embedded; this only fails on a corrupt build.
		return strings.Fields(text)
	}
	return t.Wakati(text)
}

// ngrams slides an n-rune window over each whitespace-delimited word so
// that no token straddles a space. Words shorter than n are kept whole.
func ngrams(text string, n int) []string {
	var out []string
	for _, word := range strings.Fields(text) {
		rs := []rune(word)
		if len(rs) < n {
			out = append(out, word)
			continue
		}
		for i := 0; i+n <= len(rs); i++ {
			out = append(out, string(rs[i:i+n]))
		}
	}
	return out
}
