// CLAUDE:SUMMARY Builds extended-syntax engine queries from raw user input for AND, OR and plain search modes.
package query

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/kanaseek/pkg/textnorm"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
)

// Mode is the search semantics applied to a raw query.
type Mode int

const (
	// And requires every token.
	And Mode = iota
	// Or requires at least one token.
	Or
	// Plain passes the query through as a single substring pattern.
	Plain
)

// Extended syntax understood by the engine.
const (
	ExactMarker  = "'"
	AndSeparator = " "
	OrSeparator  = " | "
)

func (m Mode) String() string {
	switch m {
	case And:
		return "and"
	case Or:
		return "or"
	case Plain:
		return "plain"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "and", "or" or "plain" to a Mode. Empty selects And.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and":
		return And, nil
	case "or":
		return Or, nil
	case "plain":
		return Plain, nil
	default:
		return 0, fmt.Errorf("unknown search mode %q (want and, or or plain)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Build turns raw user input into the query string handed to the engine.
//
// Plain only narrows full-width punctuation. And/Or tokenize the input with
// the collection's strategy, mark every token as an exact-token requirement
// and join them with the mode's separator. Tokens are split on the OR
// operator so user input never injects one. Build never fails: empty input
// yields "" for And/Or.
func Build(raw string, mode Mode, s tokenize.Strategy) string {
	switch mode {
	case Plain:
		return textnorm.FoldPunctuation(raw)
	case And:
		return join(tokenize.Tokenize(raw, s), AndSeparator)
	case Or:
		return join(tokenize.Tokenize(raw, s), OrSeparator)
	default:
		return ""
	}
}

func join(tokens []string, sep string) string {
	marked := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		for _, part := range strings.Split(tok, "|") {
			if part != "" {
				marked = append(marked, ExactMarker+part)
			}
		}
	}
	return strings.Join(marked, sep)
}
