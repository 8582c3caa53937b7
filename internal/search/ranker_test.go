package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

func TestRank(t *testing.T) {
	results := ResultSet{{DocID: 0, Score: 1}, {DocID: 2, Score: 3}, {DocID: 4, Score: 3}, {DocID: 7, Score: 2}}

	tests := []struct {
		name     string
		limit    int
		expected []Hit
	}{
		{"score desc then docID asc", 10, []Hit{{2, 3}, {4, 3}, {7, 2}, {0, 1}}},
		{"truncated", 2, []Hit{{2, 3}, {4, 3}}},
		{"exact size", 4, []Hit{{2, 3}, {4, 3}, {7, 2}, {0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked, total, err := Rank(results, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ranked)
			assert.Equal(t, 4, total)
		})
	}

	// The input keeps its DocID order.
	assert.Equal(t, []index.DocID{0, 2, 4, 7}, docIDs(results))
}

func TestRankEmpty(t *testing.T) {
	ranked, total, err := Rank(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.NotNil(t, ranked)
	assert.Zero(t, total)
}

func TestRankInvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, _, err := Rank(ResultSet{{DocID: 1, Score: 1}}, limit)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	}
}
