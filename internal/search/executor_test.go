package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/query"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

func runQuery(t *testing.T, ii *index.InvertedIndex, text string, parallelism int) []Hit {
	t.Helper()
	settings := catalogSettings()
	svc, err := NewService(ii, store.NewDocumentStore(), settings)
	require.NoError(t, err)
	q, err := svc.Parse(text, "")
	require.NoError(t, err)

	rs, err := NewExecutor(settings.Scoring, parallelism).Execute(context.Background(), q, ii.Reader())
	require.NoError(t, err)
	ranked, _, err := Rank(rs, 100)
	require.NoError(t, err)
	return ranked
}

func TestExecuteCatalogQueries(t *testing.T) {
	ii, _ := buildCatalog(t)

	tests := []struct {
		query    string
		expected []index.DocID
	}{
		{"product:tv", []index.DocID{0, 1, 5, 6}},
		{"tv", []index.DocID{0, 1, 5, 6}},
		{`product:"smart tv"`, []index.DocID{1, 5}},
		{"product:smart tv", []index.DocID{1, 5}},
		{`product:"tv smart"`, nil},
		{`product:"tv smart"~1`, []index.DocID{1, 5}},
		{`product:"smart 4k"~1`, []index.DocID{5}},
		{`product:"smart 4k"`, nil},
		{"product:smart*", []index.DocID{2, 1, 4, 5}},
		{"product:sm*ph?ne", []index.DocID{2, 4}},
		{"product:*phone", []index.DocID{3, 2, 4}},
		{"sku:[2 TO 4]", []index.DocID{1, 2, 3}},
		{"sku:{2 TO 4]", []index.DocID{2, 3}},
		{"sku:[6 TO *]", []index.DocID{5, 6}},
		{"sku:3", []index.DocID{2}},
		{"product:tv -product:smart", []index.DocID{0, 6}},
		{"product:tv !product:smart", []index.DocID{0, 6}},
		{"product:tv NOT product:wall", []index.DocID{0, 1, 5}},
		{"+product:smart +department:tvs", []index.DocID{1, 5}},
		{"product:smart AND department:smartphones", nil},
		{"product:smartphone OR product:cellphone", []index.DocID{3, 2, 4}},
		{"department:smartphones -(product:cellphone OR product:case)", []index.DocID{2}},
		{"product:cellphne~", []index.DocID{3}},
		{"product:smartphon~1", []index.DocID{2, 4}},
		{"-product:tv", nil},
		{"product:television", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits := runQuery(t, ii, tt.query, 1)
			if tt.expected == nil {
				assert.Empty(t, hits)
				return
			}
			assert.Equal(t, tt.expected, docIDs(hits))
		})
	}
}

func TestExactMatchRanksFirst(t *testing.T) {
	ii, _ := buildCatalog(t)
	hits := runQuery(t, ii, "product:tv", 1)
	require.NotEmpty(t, hits)
	assert.Equal(t, index.DocID(0), hits[0].DocID, `"TV" is the shortest document containing tv`)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestBoostChangesRanking(t *testing.T) {
	ii, _ := buildCatalog(t)

	plain := runQuery(t, ii, "product:tv OR product:smartphone", 1)
	boosted := runQuery(t, ii, "product:tv OR product:smartphone^10", 1)

	assert.ElementsMatch(t, docIDs(plain), docIDs(boosted))
	assert.Equal(t, index.DocID(2), boosted[0].DocID)

	single := runQuery(t, ii, "product:tv", 1)
	doubled := runQuery(t, ii, "product:tv^2", 1)
	require.Len(t, doubled, len(single))
	for i := range single {
		assert.Equal(t, single[i].DocID, doubled[i].DocID)
		assert.InDelta(t, 2*single[i].Score, doubled[i].Score, 1e-12)
	}
}

func TestTranspositionCostsSlop(t *testing.T) {
	ii, _ := buildCatalog(t)
	exact := runQuery(t, ii, `product:"smart tv"`, 1)
	swapped := runQuery(t, ii, `product:"tv smart"~1`, 1)
	require.Len(t, exact, 2)
	require.Len(t, swapped, 2)
	assert.Less(t, swapped[0].Score, exact[0].Score)
}

func TestParallelEvaluationIsDeterministic(t *testing.T) {
	ii, _ := buildCatalog(t)
	queries := []string{
		"product:tv OR product:smart* OR department:smartphones OR sku:[1 TO 3]",
		`+(product:tv product:"smart tv"~2) -sku:7 department:tvs^3`,
		"(product:case OR product:cellphone) (department:smartphone* OR product:wall)",
	}
	for _, text := range queries {
		sequential := runQuery(t, ii, text, 1)
		for i := 0; i < 20; i++ {
			assert.Equal(t, sequential, runQuery(t, ii, text, 8), text)
		}
	}
}

func TestExecuteProgrammaticQueries(t *testing.T) {
	ii, _ := buildCatalog(t)
	exec := NewExecutor(config.ScoringSettings{}, 1)
	ctx := context.Background()
	r := ii.Reader()

	rs, err := exec.Execute(ctx, query.NewTerm("color", "red"), r)
	require.NoError(t, err)
	assert.Empty(t, rs, "unknown fields match nothing")

	rs, err = exec.Execute(ctx, &query.MatchNoneQuery{}, r)
	require.NoError(t, err)
	assert.Empty(t, rs)

	_, err = exec.Execute(ctx, nil, r)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = exec.Execute(ctx, &query.BoostQuery{Query: query.NewTerm("product", "tv"), Boost: 0}, r)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = exec.Execute(ctx, &query.PhraseQuery{Field: "product", Terms: []string{"tv"}, Positions: []int{0}, Slop: -1}, r)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = exec.Execute(ctx, &query.FuzzyQuery{Field: "product", Term: "tv", MaxEdits: 3}, r)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = exec.Execute(ctx, &query.RangeQuery{Field: "product", Low: "a", High: "z", IncludeLow: true, IncludeHigh: true}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	phrase, err := query.NewPhrase("product", 0, "tv", "wall")
	require.NoError(t, err)
	rs, err = exec.Execute(ctx, phrase, r)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{6}, docIDs(rs))
}

func TestNumericRangeErrors(t *testing.T) {
	ii := index.NewInvertedIndex(nil)
	require.NoError(t, ii.Add(0, []index.Field{{Name: "price", Value: "10", Type: config.FieldTypeKeyword, Ordering: config.OrderingNumeric}}))
	exec := NewExecutor(config.ScoringSettings{}, 1)

	rs, err := exec.Execute(context.Background(), &query.RangeQuery{Field: "price", Low: "5", High: "20", IncludeLow: true, IncludeHigh: true}, ii.Reader())
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{0}, docIDs(rs))

	_, err = exec.Execute(context.Background(), &query.RangeQuery{Field: "price", Low: "cheap", IncludeLow: true}, ii.Reader())
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestExecuteHonorsCancellation(t *testing.T) {
	ii, _ := buildCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := query.NewBoolean(query.ShouldClause(query.NewTerm("product", "tv")), query.ShouldClause(query.NewTerm("product", "smart")))
	for _, parallelism := range []int{1, 4} {
		_, err := NewExecutor(config.ScoringSettings{}, parallelism).Execute(ctx, q, ii.Reader())
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSnapshotIgnoresLaterDocuments(t *testing.T) {
	ii, _ := buildCatalog(t)
	reader := ii.Reader()
	require.NoError(t, ii.Add(ii.NextDocID(), productFields(product{"TV Stand", "TV Accessories", "8"})))

	exec := NewExecutor(config.ScoringSettings{}, 1)
	before, err := exec.Execute(context.Background(), query.NewTerm("product", "tv"), reader)
	require.NoError(t, err)
	after, err := exec.Execute(context.Background(), query.NewTerm("product", "tv"), ii.Reader())
	require.NoError(t, err)

	assert.Equal(t, []index.DocID{0, 1, 5, 6}, docIDs(before))
	assert.Equal(t, []index.DocID{0, 1, 5, 6, 7}, docIDs(after))
}

func TestSloppyFreq(t *testing.T) {
	tests := []struct {
		name      string
		positions [][]int
		offsets   []int
		slop      int
		expected  float64
	}{
		{"exact", [][]int{{1}, {2}}, []int{0, 1}, 0, 1},
		{"gap needs slop", [][]int{{0}, {2}}, []int{0, 1}, 0, 0},
		{"gap within slop", [][]int{{0}, {2}}, []int{0, 1}, 1, 0.5},
		{"reversed pair by transposition", [][]int{{1}, {0}}, []int{0, 1}, 1, 0.5},
		{"reversed pair in order with more slop", [][]int{{1}, {0}}, []int{0, 1}, 2, 1.0 / 3},
		{"two occurrences", [][]int{{0, 5}, {1, 6}}, []int{0, 1}, 0, 2},
		{"repeated term needs two tokens", [][]int{{3}, {3}}, []int{0, 1}, 2, 0},
		{"stopword gap", [][]int{{0}, {2}}, []int{0, 2}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, sloppyFreq(tt.positions, tt.offsets, tt.slop), 1e-12)
		})
	}
}

func TestCompileWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		prefix  string
		match   []string
		noMatch []string
	}{
		{"sm*ph?ne", "sm", []string{"smartphone", "smphone"}, []string{"smartphones", "phone"}},
		{"*phone", "", []string{"phone", "cellphone"}, []string{"phones"}},
		{`a\*b*`, "a*b", []string{"a*b", "a*bc"}, []string{"ab", "axb"}},
		{"4?", "4", []string{"4k"}, []string{"4", "4kk"}},
		{"c.s?", "c.s", []string{"c.se"}, []string{"case"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, prefix, err := compileWildcard(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
			for _, s := range tt.match {
				assert.True(t, re.MatchString(s), s)
			}
			for _, s := range tt.noMatch {
				assert.False(t, re.MatchString(s), s)
			}
		})
	}
}
