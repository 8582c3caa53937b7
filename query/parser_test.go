package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	internalErrors "github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

func productFields() FieldResolver {
	fields := map[string]index.FieldInfo{
		"product":    {Type: config.FieldTypeText, Ordering: config.OrderingLexicographic},
		"department": {Type: config.FieldTypeText, Ordering: config.OrderingLexicographic},
		"sku":        {Type: config.FieldTypeKeyword, Ordering: config.OrderingLexicographic},
		"price":      {Type: config.FieldTypeKeyword, Ordering: config.OrderingNumeric},
	}
	return FieldResolverFunc(func(name string) (index.FieldInfo, bool) {
		info, ok := fields[name]
		return info, ok
	})
}

func newTestParser(settings config.ParserSettings) *Parser {
	return NewParser(analysis.Standard(), productFields(), settings)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single term", "product:tv", "product:tv"},
		{"other field", "department:accessories", "department:accessories"},
		{"default field", "TV", "product:tv"},
		{"word run is a phrase", "product:smart tv", `product:"smart tv"`},
		{"AND makes both clauses required", "product:tv AND department:TVs", "+product:tv +department:tvs"},
		{"OR keeps both optional", "product:tv OR product:smartphone", "product:tv product:smartphone"},
		{"minus excludes", "product:smartphone -department:cases", "product:smartphone -department:cases"},
		{"trailing star is a prefix", "product:smart*", "product:smart*"},
		{"inner star is a wildcard", "product:sm*phone", "product:sm*phone"},
		{"question mark is a wildcard", "product:sm?rt", "product:sm?rt"},
		{"wildcard lowercased on text fields", "product:Smart*", "product:smart*"},
		{"phrase with zero slop", `"smart 4k"~0`, `product:"smart 4k"`},
		{"phrase with slop", `"smart 4k"~1`, `product:"smart 4k"~1`},
		{"word run with slop", "product:smart tv~2", `product:"smart tv"~2`},
		{"inclusive range", "sku:[2 TO 5]", "sku:[2 TO 5]"},
		{"mixed range", "sku:{2 TO 5]", "sku:{2 TO 5]"},
		{"open range", "sku:[* TO 5}", "sku:[* TO 5}"},
		{"numeric range", "price:[1.5 TO 10]", "price:[1.5 TO 10]"},
		{
			"boosted groups",
			"(product:tv AND department:tvs)^1.5 (product:tv AND department:tv accessories)",
			`(+product:tv +department:tvs)^1.5 (+product:tv +department:"tv accessories")`,
		},
		{
			"boost on the second group",
			"(product:tv AND department:tvs) (product:tv AND department:tv accessories)^1.5",
			`(+product:tv +department:tvs) (+product:tv +department:"tv accessories")^1.5`,
		},
		{"plus alone", "+product:tv", "+product:tv"},
		{"minus alone", "-product:tv", "-product:tv"},
		{"NOT keyword", "NOT product:tv", "-product:tv"},
		{"bang", "tv !department:tvs", "product:tv -department:tvs"},
		{"AND NOT", "tv AND NOT smart", "+product:tv -product:smart"},
		{"left to right grouping", "tv && smart || 4k", "+product:tv +product:smart product:4k"},
		{"AND does not promote a prohibited clause", "-tv AND smart", "-product:tv +product:smart"},
		{"field applies to group", "product:(tv OR smartphone)", "product:tv product:smartphone"},
		{"term boost", "product:TV^2", "(product:tv)^2"},
		{"fuzzy default distance", "product:tv~", "product:tv~2"},
		{"fuzzy explicit distance", "product:smartphon~1", "product:smartphon~1"},
		{"split word becomes a phrase", "wi-fi", `product:"wi fi"`},
		{"keyword values are verbatim", `sku:"AB 12"`, `sku:AB\ 12`},
		{"keyword word run", "sku:AB 12", `sku:AB\ 12`},
		{"escaped star is literal", `product:smart\*`, "product:smart"},
		{"escaped star in prefix", `sku:a\*b*`, `sku:a\*b*`},
		{"escaped colon", `product:a\:b`, `product:"a b"`},
		{"empty query", "", "<match none>"},
		{"blank query", "   ", "<match none>"},
		{"symbols only", "product:&", "<match none>"},
	}

	p := newTestParser(config.ParserSettings{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := p.Parse(tt.input, "product")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q.String())
		})
	}
}

func TestParseStructure(t *testing.T) {
	p := newTestParser(config.ParserSettings{})

	q, err := p.Parse(`"4k tv"~1`, "product")
	require.NoError(t, err)
	phrase, ok := q.(*PhraseQuery)
	require.True(t, ok)
	assert.Equal(t, &PhraseQuery{Field: "product", Terms: []string{"4k", "tv"}, Positions: []int{0, 1}, Slop: 1}, phrase)

	q, err = p.Parse("sku:{2 TO *]", "product")
	require.NoError(t, err)
	assert.Equal(t, &RangeQuery{Field: "sku", Low: "2", High: "", IncludeLow: false, IncludeHigh: true}, q)

	q, err = p.Parse("product:tv AND department:TVs", "product")
	require.NoError(t, err)
	boolean, ok := q.(*BooleanQuery)
	require.True(t, ok)
	require.Len(t, boolean.Clauses, 2)
	assert.Equal(t, Must, boolean.Clauses[0].Occur)
	assert.Equal(t, &TermQuery{Field: "department", Term: "tvs"}, boolean.Clauses[1].Query)

	q, err = p.Parse("product:sm*phone", "product")
	require.NoError(t, err)
	assert.IsType(t, &WildcardQuery{}, q)
}

func TestParseDefaultOperatorAND(t *testing.T) {
	p := newTestParser(config.ParserSettings{DefaultOperator: "and"})

	tests := []struct {
		input    string
		expected string
	}{
		{"product:tv department:tvs", "+product:tv +department:tvs"},
		{"product:tv OR department:tvs", "product:tv department:tvs"},
		{"product:tv -department:tvs", "+product:tv -department:tvs"},
		{"product:tv", "product:tv"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := p.Parse(tt.input, "product")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q.String())
		})
	}
}

func TestParseMultiTermAndMode(t *testing.T) {
	p := newTestParser(config.ParserSettings{MultiTermMode: config.MultiTermAnd})

	q, err := p.Parse("product:smart tv", "product")
	require.NoError(t, err)
	assert.Equal(t, "+product:smart +product:tv", q.String())

	q, err = p.Parse(`"smart tv"`, "product")
	require.NoError(t, err)
	assert.Equal(t, `product:"smart tv"`, q.String(), "quoted text is always a phrase")

	q, err = p.Parse("smart tv~1", "product")
	require.NoError(t, err)
	assert.Equal(t, `product:"smart tv"~1`, q.String(), "an explicit slop asks for proximity")
}

func TestParseStopwords(t *testing.T) {
	a := analysis.New(config.AnalyzerSettings{Stopwords: []string{"for", "the"}})
	p := NewParser(a, productFields(), config.ParserSettings{})

	q, err := p.Parse(`"case for smartphone"`, "product")
	require.NoError(t, err)
	assert.Equal(t, `product:"case ? smartphone"`, q.String())
	assert.Equal(t, []int{0, 2}, q.(*PhraseQuery).Positions)

	q, err = p.Parse("the", "product")
	require.NoError(t, err)
	assert.IsType(t, &MatchNoneQuery{}, q)

	q, err = p.Parse("tv -the", "product")
	require.NoError(t, err)
	assert.Equal(t, "product:tv", q.String(), "clauses that analyze to nothing are dropped")
}

func TestParseWithoutResolver(t *testing.T) {
	p := NewParser(nil, nil, config.ParserSettings{})
	q, err := p.Parse("anything:Goes", "body")
	require.NoError(t, err)
	assert.Equal(t, "anything:goes", q.String())
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		position int
	}{
		{"unterminated quote", `product:"smart tv`, 8},
		{"unmatched open paren", "(product:tv", 0},
		{"unmatched nested paren", "product:tv AND (department:tvs", 15},
		{"unmatched close paren", "product:tv)", 10},
		{"unterminated range", "sku:[2 TO 5", 4},
		{"range without TO", "sku:[2 5]", 7},
		{"range missing bound", "sku:[2 TO ]", 10},
		{"non-numeric bound", "price:[cheap TO 5]", 7},
		{"unknown field", "color:red", 0},
		{"unknown field after clause", "tv color:red", 3},
		{"missing field value", "product:", 0},
		{"field followed by field", "product:sku:1", 0},
		{"leading AND", "AND tv", 0},
		{"trailing AND", "tv AND", 3},
		{"trailing OR in group", "(tv OR)", 4},
		{"double operator", "tv OR OR smart", 3},
		{"dangling minus", "tv -", 3},
		{"dangling NOT", "tv NOT", 3},
		{"zero boost", "tv^0", 2},
		{"negative boost", "tv^-1", 2},
		{"malformed boost", "tv^abc", 2},
		{"missing boost", "tv^", 2},
		{"negative slop", `"smart 4k"~-1`, 10},
		{"missing slop", `"smart 4k"~`, 10},
		{"fractional slop", `"smart 4k"~1.5`, 10},
		{"fuzzy distance too large", "tv~3", 2},
		{"empty group", "()", 0},
		{"stray boost", "^2", 0},
		{"stray tilde after group", "(tv)~2", 4},
		{"missing field name", ":tv", 0},
		{"dangling escape", `tv\`, 2},
		{"stray range end", "tv ]", 3},
	}

	p := newTestParser(config.ParserSettings{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := p.Parse(tt.input, "product")
			require.Error(t, err)
			assert.Nil(t, q)
			assert.True(t, errors.Is(err, ErrSyntax))

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.position, syntaxErr.Position, syntaxErr.Message)
		})
	}
}

func TestParseWithoutDefaultField(t *testing.T) {
	p := newTestParser(config.ParserSettings{})

	_, err := p.Parse("tv", "")
	assert.True(t, errors.Is(err, ErrSyntax))

	q, err := p.Parse("product:tv", "")
	require.NoError(t, err)
	assert.Equal(t, "product:tv", q.String())
}

func TestConstructors(t *testing.T) {
	_, err := NewBoost(NewTerm("product", "tv"), 0)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidArgument))

	_, err = NewBoost(NewTerm("product", "tv"), -2)
	assert.Error(t, err)

	b, err := NewBoost(NewTerm("product", "tv"), 2.5)
	require.NoError(t, err)
	assert.Equal(t, "(product:tv)^2.5", b.String())

	_, err = NewPhrase("product", -1, "smart", "tv")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidArgument))

	_, err = NewPhrase("product", 0)
	assert.Error(t, err)

	phrase, err := NewPhrase("product", 1, "4k", "tv")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, phrase.Positions)

	q := NewBoolean(
		MustClause(NewTerm("product", "smartphone")),
		ShouldClause(NewTerm("product", "case")),
		MustNotClause(NewTerm("department", "cases")),
	)
	assert.Equal(t, "+product:smartphone product:case -department:cases", q.String())
	assert.Equal(t, "MUST_NOT", q.Clauses[2].Occur.String())
}

func TestStringEscapesLiterals(t *testing.T) {
	tests := []struct {
		name     string
		q        Query
		expected string
	}{
		{"literal star", &TermQuery{Field: "sku", Term: "a*"}, `sku:a\*`},
		{"prefix", &PrefixQuery{Field: "sku", Prefix: "a"}, "sku:a*"},
		{"literal tilde", &TermQuery{Field: "sku", Term: "a~2"}, `sku:a\~2`},
		{"fuzzy", &FuzzyQuery{Field: "sku", Term: "a", MaxEdits: 2}, "sku:a~2"},
		{"literal star bound", &RangeQuery{Field: "sku", Low: "*", IncludeLow: true, IncludeHigh: true}, `sku:[\* TO *]`},
		{"bound with TO", &RangeQuery{Field: "sku", Low: "a TO b", High: "c", IncludeLow: true}, `sku:[a\ TO\ b TO c}`},
		{"pattern keeps wildcards", &WildcardQuery{Field: "sku", Pattern: `a\*b?c d`}, `sku:a\*b?c\ d`},
		{"phrase question mark", &PhraseQuery{Field: "product", Terms: []string{"?", "tv"}, Positions: []int{0, 2}}, `product:"\? ? tv"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.q.String())
		})
	}

	// Escaped renderings parse back to the same tree.
	p := newTestParser(config.ParserSettings{})
	for _, input := range []string{`sku:a\*`, `sku:a\~2`, `sku:AB\ 12`} {
		q, err := p.Parse(input, "product")
		require.NoError(t, err)
		assert.Equal(t, input, q.String())
	}
}
