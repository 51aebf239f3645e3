package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign_MatchesNormalize(t *testing.T) {
	for _, s := range []string{
		"", "   ", "Tokyo Tower", "ＴＯＫＹＯ　１２３", "ﾄｳｷｮｳﾀﾜｰ",
		"ｶﾞｲﾄﾞ ブック", "  東京タワー", "（株）サンプル！", "  ヴァイオリン  ",
	} {
		got, _ := Align(s)
		assert.Equal(t, Normalize(s), got, "Align(%q)", s)
	}
}

func TestAlign_Original(t *testing.T) {
	tests := []struct {
		text       string
		start, end int
		wantStart  int
		wantEnd    int
	}{
		{"Tokyo Tower", 6, 10, 6, 10},
		{"  東京タワー", 2, 4, 4, 6},
		{"ｶﾞｲﾄﾞ ブック", 4, 6, 6, 8},
		{"ｶﾞｲﾄﾞ ブック", 0, 0, 0, 1},
		{"ｶﾞｲﾄﾞ ブック", 2, 2, 3, 4},
		{"ﾃﾞｨｽﾞﾆｰ ランド", 6, 8, 8, 10},
		{"ＴＯＫＹＯ", 0, 4, 0, 4},
	}
	for _, tt := range tests {
		_, a := Align(tt.text)
		start, end, ok := a.Original(tt.start, tt.end)
		require.True(t, ok, "%q [%d,%d]", tt.text, tt.start, tt.end)
		assert.Equal(t, tt.wantStart, start, tt.text)
		assert.Equal(t, tt.wantEnd, end, tt.text)
	}
}

func TestAlign_OutOfRange(t *testing.T) {
	_, a := Align("ｶﾞｲﾄﾞ")
	for _, r := range [][2]int{{-1, 0}, {2, 1}, {0, 3}} {
		_, _, ok := a.Original(r[0], r[1])
		assert.False(t, ok, r)
	}

	_, empty := Align("")
	_, _, ok := empty.Original(0, 0)
	assert.False(t, ok)
}
