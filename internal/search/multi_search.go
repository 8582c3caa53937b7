package search

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/services"
)

// MultiSearch executes multiple named queries in parallel. Every query sees
// the same snapshot, so documents added meanwhile appear in none of them.
func (s *Service) MultiSearch(ctx context.Context, multiQuery services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	start := time.Now()

	if len(multiQuery.Queries) == 0 {
		return nil, errors.NewValidationError("queries", "at least one query is required")
	}
	seen := make(map[string]struct{}, len(multiQuery.Queries))
	for _, nq := range multiQuery.Queries {
		if nq.Name == "" {
			return nil, errors.NewValidationError("queries", "each query must have a non-empty name")
		}
		if _, dup := seen[nq.Name]; dup {
			return nil, errors.NewValidationError("queries", fmt.Sprintf("query name '%s' appears multiple times", nq.Name))
		}
		seen[nq.Name] = struct{}{}
	}

	reader := s.invertedIndex.Reader()
	results := make([]services.SearchResult, len(multiQuery.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, nq := range multiQuery.Queries {
		g.Go(func() error {
			limit := nq.Limit
			if limit == 0 {
				limit = multiQuery.Limit
			}
			result, err := s.searchSnapshot(gctx, reader, services.SearchQuery{
				Query:             nq.Query,
				DefaultField:      nq.DefaultField,
				Limit:             limit,
				RetrievableFields: nq.RetrievableFields,
				ExplainQuery:      nq.ExplainQuery,
			})
			if err != nil {
				return fmt.Errorf("query '%s': %w", nq.Name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]services.SearchResult, len(results))
	for i, nq := range multiQuery.Queries {
		byName[nq.Name] = results[i]
	}
	s.logger.Debug("multi-search", zap.Int("queries", len(results)), zap.Duration("took", time.Since(start)))
	return &services.MultiSearchResult{
		Results:      byName,
		TotalQueries: len(results),
		Took:         time.Since(start).Milliseconds(),
	}, nil
}
