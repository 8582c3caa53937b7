package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultSetOperations(t *testing.T) {
	a := ResultSet{{DocID: 1, Score: 1}, {DocID: 3, Score: 1}, {DocID: 5, Score: 1}}
	b := ResultSet{{DocID: 3, Score: 2}, {DocID: 4, Score: 2}}

	tests := []struct {
		name     string
		got      ResultSet
		expected ResultSet
	}{
		{"union", union(a, b), ResultSet{{1, 1}, {3, 3}, {4, 2}, {5, 1}}},
		{"union with empty", union(nil, b), b},
		{"intersect", intersect(a, b), ResultSet{{3, 3}}},
		{"intersect with empty", intersect(a, nil), ResultSet{}},
		{"addScores", addScores(a, b), ResultSet{{1, 1}, {3, 3}, {5, 1}}},
		{"subtract", subtract(a, b), ResultSet{{1, 1}, {5, 1}}},
		{"scale", scale(b, 0.5), ResultSet{{3, 1}, {4, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}

	// Inputs are never modified.
	assert.Equal(t, ResultSet{{DocID: 1, Score: 1}, {DocID: 3, Score: 1}, {DocID: 5, Score: 1}}, a)
}
