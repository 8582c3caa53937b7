package search

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/typoutil"
	"github.com/gcbaptista/go-fulltext-engine/query"
)

// MaxExpansions caps the number of dictionary terms a prefix, wildcard,
// range or fuzzy query may expand to.
const MaxExpansions = 1024

// Executor evaluates query trees against an index snapshot.
type Executor struct {
	scorer      BM25
	parallelism int
}

// NewExecutor creates an executor. Boolean clauses are evaluated on up to
// parallelism goroutines; values below 2 evaluate them sequentially.
func NewExecutor(scoring config.ScoringSettings, parallelism int) *Executor {
	return &Executor{scorer: NewBM25(scoring), parallelism: max(parallelism, 1)}
}

// Execute returns the matching documents of q with their scores, sorted by
// DocID. Fields unknown to the reader match nothing.
func (e *Executor) Execute(ctx context.Context, q query.Query, r *index.Reader) (ResultSet, error) {
	if r == nil {
		return nil, errors.NewInvalidArgumentError("reader", "must not be nil")
	}
	return e.eval(ctx, q, r)
}

func (e *Executor) eval(ctx context.Context, q query.Query, r *index.Reader) (ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch q := q.(type) {
	case *query.TermQuery:
		return e.evalTerm(q.Field, q.Term, r), nil
	case *query.PhraseQuery:
		return e.evalPhrase(q, r)
	case *query.PrefixQuery:
		return e.expand(q.Field, r.TermsWithPrefix(q.Field, q.Prefix), r)
	case *query.WildcardQuery:
		return e.evalWildcard(q, r)
	case *query.RangeQuery:
		terms, err := r.TermsInRange(q.Field, q.Low, q.High, q.IncludeLow, q.IncludeHigh)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("range", "%v", err)
		}
		return e.expand(q.Field, terms, r)
	case *query.FuzzyQuery:
		return e.evalFuzzy(q, r)
	case *query.BooleanQuery:
		return e.evalBoolean(ctx, q, r)
	case *query.BoostQuery:
		if !(q.Boost > 0) || math.IsInf(q.Boost, 0) {
			return nil, errors.NewInvalidArgumentError("boost", "must be a positive finite number, got %v", q.Boost)
		}
		rs, err := e.eval(ctx, q.Query, r)
		if err != nil {
			return nil, err
		}
		return scale(rs, q.Boost), nil
	case *query.MatchNoneQuery:
		return nil, nil
	case nil:
		return nil, invalidQuery("nil query")
	default:
		return nil, invalidQuery("unsupported query node %T", q)
	}
}

func (e *Executor) evalTerm(field, term string, r *index.Reader) ResultSet {
	pl := r.Postings(field, term)
	if len(pl) == 0 {
		return nil
	}
	idf := e.scorer.IDF(r.NumDocs(), len(pl))
	avg := r.AvgFieldLength(field)
	out := make(ResultSet, len(pl))
	for i, p := range pl {
		out[i] = Hit{
			DocID: p.DocID,
			Score: e.scorer.Score(idf, float64(p.Freq), r.FieldLength(field, p.DocID), avg),
		}
	}
	return out
}

// expand unions the term results of terms in dictionary order.
func (e *Executor) expand(field string, terms []string, r *index.Reader) (ResultSet, error) {
	if len(terms) > MaxExpansions {
		return nil, invalidQuery("field %q expands to %d terms, more than the limit of %d", field, len(terms), MaxExpansions)
	}
	var out ResultSet
	for _, term := range terms {
		out = union(out, e.evalTerm(field, term, r))
	}
	return out, nil
}

func (e *Executor) evalWildcard(q *query.WildcardQuery, r *index.Reader) (ResultSet, error) {
	re, prefix, err := compileWildcard(q.Pattern)
	if err != nil {
		return nil, invalidQuery("bad wildcard pattern %q: %v", q.Pattern, err)
	}
	var terms []string
	if prefix != "" {
		for _, term := range r.TermsWithPrefix(q.Field, prefix) {
			if re.MatchString(term) {
				terms = append(terms, term)
			}
		}
	} else {
		terms = r.TermsMatching(q.Field, re.MatchString)
	}
	return e.expand(q.Field, terms, r)
}

func (e *Executor) evalFuzzy(q *query.FuzzyQuery, r *index.Reader) (ResultSet, error) {
	if q.MaxEdits < 0 || q.MaxEdits > 2 {
		return nil, errors.NewInvalidArgumentError("max_edits", "must be between 0 and 2, got %d", q.MaxEdits)
	}
	matches := typoutil.WithinDistance(q.Term, r.Terms(q.Field), q.MaxEdits)
	if len(matches) > MaxExpansions {
		return nil, invalidQuery("field %q expands to %d terms, more than the limit of %d", q.Field, len(matches), MaxExpansions)
	}
	var out ResultSet
	for _, m := range matches {
		rs := e.evalTerm(q.Field, m.Term, r)
		out = union(out, scale(rs, 1/float64(1+m.Distance)))
	}
	return out, nil
}

// evalBoolean evaluates every clause, then combines the results in clause
// order: MUST clauses are intersected, SHOULD clauses add score (or form the
// result when there is no MUST clause) and MUST_NOT clauses are removed.
func (e *Executor) evalBoolean(ctx context.Context, q *query.BooleanQuery, r *index.Reader) (ResultSet, error) {
	results, err := e.evalClauses(ctx, q.Clauses, r)
	if err != nil {
		return nil, err
	}

	var (
		base     ResultSet
		hasMust  bool
		shoulds  []ResultSet
		excluded []ResultSet
	)
	for i, c := range q.Clauses {
		switch c.Occur {
		case query.Must:
			if !hasMust {
				base, hasMust = results[i], true
			} else {
				base = intersect(base, results[i])
			}
		case query.Should:
			shoulds = append(shoulds, results[i])
		case query.MustNot:
			excluded = append(excluded, results[i])
		default:
			return nil, invalidQuery("unknown clause occur %d", c.Occur)
		}
	}

	switch {
	case hasMust:
		for _, rs := range shoulds {
			base = addScores(base, rs)
		}
	case len(shoulds) > 0:
		for _, rs := range shoulds {
			base = union(base, rs)
		}
	default:
		return nil, nil
	}
	for _, rs := range excluded {
		base = subtract(base, rs)
	}
	return base, nil
}

func (e *Executor) evalClauses(ctx context.Context, clauses []query.Clause, r *index.Reader) ([]ResultSet, error) {
	results := make([]ResultSet, len(clauses))
	if e.parallelism < 2 || len(clauses) < 2 {
		for i, c := range clauses {
			rs, err := e.eval(ctx, c.Query, r)
			if err != nil {
				return nil, err
			}
			results[i] = rs
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, c := range clauses {
		g.Go(func() error {
			rs, err := e.eval(gctx, c.Query, r)
			if err != nil {
				return err
			}
			results[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func invalidQuery(format string, args ...interface{}) error {
	return errors.NewInvalidArgumentError("query", "%s", fmt.Sprintf(format, args...))
}
