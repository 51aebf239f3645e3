package record

import (
	"github.com/hazyhaar/kanaseek/pkg/textnorm"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
)

// Expand derives the enriched collection and its field registry.
//
// The first record fixes the field set. Every later record must carry
// exactly the same names; order may differ, output is in registry order.
func Expand(records []RawRecord, s tokenize.Strategy) ([]EnrichedRecord, FieldRegistry, error) {
	if len(records) == 0 {
		return nil, FieldRegistry{}, &MalformedInputError{Row: -1, Reason: "no records"}
	}

	names, err := fieldNames(records[0])
	if err != nil {
		return nil, FieldRegistry{}, err
	}
	registry := NewFieldRegistry(names)

	out := make([]EnrichedRecord, len(records))
	for i, raw := range records {
		if err := checkFields(i, raw, names); err != nil {
			return nil, FieldRegistry{}, err
		}
		out[i] = expandOne(raw, names, s)
	}
	return out, registry, nil
}

func expandOne(raw RawRecord, names []string, s tokenize.Strategy) EnrichedRecord {
	rec := EnrichedRecord{
		Original: make(RawRecord, len(names)),
		Derived:  make([]DerivedField, len(names)),
	}
	for j, name := range names {
		v, _ := raw.Get(name)
		rec.Original[j] = Field{Name: name, Value: v}
		rec.Derived[j] = DerivedField{
			Source: name,
			Search: textnorm.Normalize(v),
			Tokens: tokenize.Tokenize(v, s),
		}
	}
	return rec
}

func fieldNames(first RawRecord) ([]string, error) {
	if len(first) == 0 {
		return nil, &MalformedInputError{Row: 0, Reason: "record has no fields"}
	}
	seen := make(map[string]bool, len(first))
	names := make([]string, 0, len(first))
	for _, f := range first {
		if f.Name == "" {
			return nil, &MalformedInputError{Row: 0, Reason: "empty field name"}
		}
		if seen[f.Name] {
			return nil, &MalformedInputError{Row: 0, Field: f.Name, Reason: "duplicate field"}
		}
		seen[f.Name] = true
		names = append(names, f.Name)
	}
	for _, name := range names {
		for _, derived := range []string{SearchKey(name), TokenizedKey(name)} {
			if seen[derived] {
				return nil, &MalformedInputError{Row: 0, Field: derived, Reason: "collides with derived field of " + name}
			}
		}
	}
	return names, nil
}

func checkFields(row int, raw RawRecord, names []string) error {
	if len(raw) != len(names) {
		for _, f := range raw {
			if !contains(names, f.Name) {
				return &MalformedInputError{Row: row, Field: f.Name, Reason: "unexpected field"}
			}
		}
	}
	for _, name := range names {
		if _, ok := raw.Get(name); !ok {
			return &MalformedInputError{Row: row, Field: name, Reason: "missing field"}
		}
	}
	if len(raw) != len(names) {
		return &MalformedInputError{Row: row, Reason: "duplicate field"}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
