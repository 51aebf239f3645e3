// CLAUDE:SUMMARY Record data model: raw records, enriched records with search_/tokenized_ forms, field registry, match spans.
package record

import "encoding/json"

// Derived field name prefixes.
const (
	SearchPrefix    = "search_"
	TokenizedPrefix = "tokenized_"
)

// SearchKey returns the name of the normalized form of field.
func SearchKey(field string) string { return SearchPrefix + field }

// TokenizedKey returns the name of the tokenized form of field.
func TokenizedKey(field string) string { return TokenizedPrefix + field }

// Field is one named cell of a record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawRecord is an ordered list of fields as produced by ingestion.
// It is treated as immutable once built.
type RawRecord []Field

// NewRawRecord zips column names with values. Missing values are empty.
func NewRawRecord(names, values []string) RawRecord {
	r := make(RawRecord, len(names))
	for i, name := range names {
		r[i].Name = name
		if i < len(values) {
			r[i].Value = values[i]
		}
	}
	return r
}

// Get returns the value of the named field.
func (r RawRecord) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the field names in order.
func (r RawRecord) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// DerivedField carries the two indexable forms of one original field.
type DerivedField struct {
	Source string   `json:"source"`
	Search string   `json:"search"`
	Tokens []string `json:"tokens"`
}

// EnrichedRecord is a RawRecord plus, for every original field F,
// search_F and tokenized_F.
type EnrichedRecord struct {
	Original RawRecord      `json:"original"`
	Derived  []DerivedField `json:"derived"`
}

// Value is what an EnrichedRecord holds under one registry key.
type Value struct {
	Text      string
	Tokens    []string
	Tokenized bool
}

// Lookup returns the value stored under a registry key.
func (r EnrichedRecord) Lookup(key string) (Value, bool) {
	if v, ok := r.Original.Get(key); ok {
		return Value{Text: v}, true
	}
	for _, d := range r.Derived {
		switch key {
		case SearchKey(d.Source):
			return Value{Text: d.Search}, true
		case TokenizedKey(d.Source):
			return Value{Tokens: d.Tokens, Tokenized: true}, true
		}
	}
	return Value{}, false
}

// Kind tells which form of a field a registry key addresses.
type Kind int

const (
	KindOriginal Kind = iota
	KindSearch
	KindTokenized
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindTokenized:
		return "tokenized"
	default:
		return "original"
	}
}

// FieldRegistry is the ordered set of keys a collection is searched on:
// every original field, then search_<name> and tokenized_<name> per field.
type FieldRegistry struct {
	originals []string
}

// NewFieldRegistry builds a registry over the given original field names.
func NewFieldRegistry(originals []string) FieldRegistry {
	return FieldRegistry{originals: append([]string(nil), originals...)}
}

// Originals returns the original field names in order.
func (f FieldRegistry) Originals() []string {
	return append([]string(nil), f.originals...)
}

// Keys returns every searchable key in registry order.
func (f FieldRegistry) Keys() []string {
	keys := make([]string, 0, 3*len(f.originals))
	keys = append(keys, f.originals...)
	for _, name := range f.originals {
		keys = append(keys, SearchKey(name), TokenizedKey(name))
	}
	return keys
}

// Len returns the number of keys.
func (f FieldRegistry) Len() int { return 3 * len(f.originals) }

// Resolve maps a registry key back to its original field and form.
// Original names win over derived ones.
func (f FieldRegistry) Resolve(key string) (string, Kind, bool) {
	for _, name := range f.originals {
		if key == name {
			return name, KindOriginal, true
		}
	}
	for _, name := range f.originals {
		switch key {
		case SearchKey(name):
			return name, KindSearch, true
		case TokenizedKey(name):
			return name, KindTokenized, true
		}
	}
	return "", 0, false
}

// MarshalJSON renders the registry as its key list.
func (f FieldRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Keys())
}

// Range is a rune offset pair, End inclusive.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MatchSpan is one hit reported by the engine. For tokenized keys Value is
// the matched token; for text keys Indices point into the field text.
type MatchSpan struct {
	Key     string  `json:"key"`
	Indices []Range `json:"indices,omitempty"`
	Value   string  `json:"value,omitempty"`
}
