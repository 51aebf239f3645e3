// CLAUDE:SUMMARY Width and kana folding for mixed Japanese/Latin text: index form, query form, punctuation-only form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	ideographicSpace = '　'

	katakanaFirst = 'ァ' // U+30A1
	katakanaLast  = 'ヶ' // U+30F6
	hiraganaFirst = 'ぁ' // U+3041
	hiraganaLast  = 'ゖ' // U+3096
	kanaOffset    = katakanaFirst - hiraganaFirst
)

// widthFold maps full-width ASCII to half-width and half-width katakana to
// full-width. NFC composes the voiced sound marks split off half-width kana
// (ｶﾞ -> カ U+3099 -> ガ).
var widthFold = transform.Chain(width.Fold, norm.NFC)

// punctFold narrows only full-width symbols and the ideographic space;
// letters, digits and kana are left alone.
var punctFold = runes.If(runes.Predicate(isWideSymbol), width.Narrow, nil)

var toHiragana = runes.Map(func(r rune) rune {
	switch {
	case r >= katakanaFirst && r <= katakanaLast:
		return r - kanaOffset
	case r == 'ヽ' || r == 'ヾ':
		return r - kanaOffset
	}
	return r
})

var toKatakana = runes.Map(func(r rune) rune {
	switch {
	case r >= hiraganaFirst && r <= hiraganaLast:
		return r + kanaOffset
	case r == 'ゝ' || r == 'ゞ':
		return r + kanaOffset
	}
	return r
})

var indexChain = transform.Chain(width.Fold, norm.NFC, toHiragana)

func isWideSymbol(r rune) bool {
	if r == ideographicSpace {
		return true
	}
	if r < '！' || r > '～' {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Normalize returns the index form of text: width folded, katakana turned
// into hiragana, lower-cased and trimmed (e.g. "ﾄｳｷｮｳ　ＴＯＷＥＲ" ->
// "とうきょう tower"). Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	result, _, _ := transform.String(indexChain, text)
	return strings.TrimSpace(strings.ToLower(result))
}

// FoldForQuery applies the width folds of Normalize but keeps katakana and
// case. The tokenizer segments this form.
func FoldForQuery(text string) string {
	result, _, _ := transform.String(widthFold, text)
	return strings.TrimSpace(result)
}

// FoldPunctuation narrows full-width punctuation and spaces only.
func FoldPunctuation(text string) string {
	result, _, _ := transform.String(punctFold, text)
	return result
}

// KatakanaToHiragana rewrites katakana as hiragana. Other runes are kept.
func KatakanaToHiragana(text string) string {
	result, _, _ := transform.String(toHiragana, text)
	return result
}

// HiraganaToKatakana rewrites hiragana as katakana. Other runes are kept.
func HiraganaToKatakana(text string) string {
	result, _, _ := transform.String(toKatakana, text)
	return result
}
