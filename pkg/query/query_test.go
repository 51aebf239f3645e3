package query

import (
	"testing"

	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"", And},
		{"and", And},
		{"OR", Or},
		{" plain ", Plain},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseMode("xor")
	assert.Error(t, err)
}

func TestModeText(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("plain")))
	assert.Equal(t, Plain, m)
	b, err := Or.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "or", string(b))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		mode     Mode
		strategy tokenize.Strategy
		want     string
	}{
		{"and joins with space", "foo bar", And, tokenize.Linguistic, "'foo 'bar"},
		{"or joins with pipe", "foo bar", Or, tokenize.Linguistic, "'foo | 'bar"},
		{"single token", "tokyo", And, tokenize.Linguistic, "'tokyo"},
		{"full-width input", "ＴＯＫＹＯ", And, tokenize.Linguistic, "'tokyo"},
		{"trigram and", "tokyo", And, tokenize.NGram3, "'tok 'oky 'kyo"},
		{"trigram or", "タワー", Or, tokenize.NGram3, "'たわー"},
		{"plain folds punctuation only", "東京！ＴＯＷＥＲ", Plain, tokenize.Linguistic, "東京!ＴＯＷＥＲ"},
		{"plain keeps case and kana", "Tokyo タワー", Plain, tokenize.NGram3, "Tokyo タワー"},
		{"empty and", "", And, tokenize.Linguistic, ""},
		{"empty or", "", Or, tokenize.NGram3, ""},
		{"blank or", "　 ", Or, tokenize.Linguistic, ""},
		{"empty plain", "", Plain, tokenize.Linguistic, ""},
		{"unknown mode", "foo", Mode(42), tokenize.Linguistic, ""},
		{"pipe inside word", "a|b", And, tokenize.Linguistic, "'a 'b"},
		{"pipe inside trigram", "a|b", Or, tokenize.NGram3, "'a | 'b"},
		{"pipe alone", "|", And, tokenize.NGram3, ""},
		{"pipe between words", "x | y", And, tokenize.Linguistic, "'x 'y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.raw, tt.mode, tt.strategy))
		})
	}
}
