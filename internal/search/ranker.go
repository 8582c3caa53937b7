package search

import (
	"cmp"
	"slices"

	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

// Rank orders hits by descending score, breaking ties by ascending DocID, and
// returns at most limit of them together with the total number of hits.
func Rank(results ResultSet, limit int) ([]Hit, int, error) {
	if limit <= 0 {
		return nil, 0, errors.NewInvalidArgumentError("limit", "must be positive, got %d", limit)
	}
	ranked := slices.Clone(results)
	slices.SortFunc(ranked, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DocID, b.DocID)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []Hit{}
	}
	return ranked, len(results), nil
}
