package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []token) []tokenKind {
	out := make([]tokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.kind
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		input    string
		expected []tokenKind
	}{
		{"product:tv", []tokenKind{tokField, tokWord, tokEOF}},
		{`"smart 4k"~1^2`, []tokenKind{tokQuoted, tokTilde, tokBoost, tokEOF}},
		{"+a -b !c NOT d", []tokenKind{tokPlus, tokWord, tokMinus, tokWord, tokNot, tokWord, tokNot, tokWord, tokEOF}},
		{"a AND b && c OR d || e", []tokenKind{tokWord, tokAnd, tokWord, tokAnd, tokWord, tokOr, tokWord, tokOr, tokWord, tokEOF}},
		{"[2 TO 5}", []tokenKind{tokRangeStart, tokWord, tokWord, tokWord, tokRangeEnd, tokEOF}},
		{"(a)", []tokenKind{tokLParen, tokWord, tokRParen, tokEOF}},
		{"wi-fi and or", []tokenKind{tokWord, tokWord, tokWord, tokEOF}},
		{"", []tokenKind{tokEOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := lex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestLexWordDetails(t *testing.T) {
	tokens, err := lex(`sm*ph\*ne \AND caf\é`)
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	assert.Equal(t, "sm*ph*ne", tokens[0].text)
	assert.Equal(t, `sm*ph\*ne`, tokens[0].pattern)
	assert.True(t, tokens[0].wildcard)

	assert.Equal(t, tokWord, tokens[1].kind, "escaped keywords are plain words")
	assert.Equal(t, "AND", tokens[1].text)

	assert.Equal(t, "café", tokens[2].text)
	assert.False(t, tokens[2].wildcard)
	assert.Equal(t, 15, tokens[2].pos)
}

func TestLexPositions(t *testing.T) {
	tokens, err := lex(`sku:[2 TO 5] "a b"`)
	require.NoError(t, err)

	positions := make([]int, len(tokens))
	for i, tok := range tokens {
		positions[i] = tok.pos
	}
	assert.Equal(t, []int{0, 4, 5, 7, 10, 11, 13, 18}, positions)
	assert.True(t, tokens[1].inclusive)
	assert.Equal(t, "a b", tokens[6].text)
}
