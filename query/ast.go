// Package query defines the query tree evaluated by the search executor and
// the parser for the textual query language.
//
// A Query is one of a closed set of node types; consumers switch over the
// concrete type. Trees are built per request and never shared.
package query

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

// Query is a node of the query tree.
type Query interface {
	// String renders the node in query-language notation.
	String() string
	isQuery()
}

// Occur tells how a boolean clause participates in matching.
type Occur int

const (
	// Should clauses add score; without Must clauses at least one of them has to match.
	Should Occur = iota
	// Must clauses have to match.
	Must
	// MustNot clauses exclude matching documents and never add score.
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "MUST"
	case MustNot:
		return "MUST_NOT"
	default:
		return "SHOULD"
	}
}

func (o Occur) prefix() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// TermQuery matches documents whose field contains Term.
type TermQuery struct {
	Field string
	Term  string
}

// PhraseQuery matches documents containing Terms at the given relative
// Positions, allowing up to Slop moves. Slop > 0 makes it a proximity query.
type PhraseQuery struct {
	Field     string
	Terms     []string
	Positions []int
	Slop      int
}

// PrefixQuery matches every term of Field starting with Prefix.
type PrefixQuery struct {
	Field  string
	Prefix string
}

// WildcardQuery matches terms against Pattern, where '*' is any run of
// characters and '?' any single character. A backslash escapes the next character.
type WildcardQuery struct {
	Field   string
	Pattern string
}

// FuzzyQuery matches terms within MaxEdits Damerau-Levenshtein edits of Term.
type FuzzyQuery struct {
	Field    string
	Term     string
	MaxEdits int
}

// RangeQuery matches terms between Low and High. An empty bound is open.
type RangeQuery struct {
	Field       string
	Low         string
	High        string
	IncludeLow  bool
	IncludeHigh bool
}

// Clause is one member of a BooleanQuery.
type Clause struct {
	Query Query
	Occur Occur
}

// BooleanQuery combines clauses by their Occur.
type BooleanQuery struct {
	Clauses []Clause
}

// BoostQuery multiplies the scores of Query by Boost.
type BoostQuery struct {
	Query Query
	Boost float64
}

// MatchNoneQuery matches nothing. Empty query text parses to it.
type MatchNoneQuery struct{}

func (*TermQuery) isQuery()      {}
func (*PhraseQuery) isQuery()    {}
func (*PrefixQuery) isQuery()    {}
func (*WildcardQuery) isQuery()  {}
func (*FuzzyQuery) isQuery()     {}
func (*RangeQuery) isQuery()     {}
func (*BooleanQuery) isQuery()   {}
func (*BoostQuery) isQuery()     {}
func (*MatchNoneQuery) isQuery() {}

// NewTerm returns a TermQuery.
func NewTerm(field, term string) *TermQuery {
	return &TermQuery{Field: field, Term: term}
}

// NewPhrase returns a PhraseQuery over consecutive terms.
func NewPhrase(field string, slop int, terms ...string) (*PhraseQuery, error) {
	if slop < 0 {
		return nil, errors.NewInvalidArgumentError("slop", "must not be negative, got %d", slop)
	}
	if len(terms) == 0 {
		return nil, errors.NewInvalidArgumentError("terms", "a phrase needs at least one term")
	}
	positions := make([]int, len(terms))
	for i := range positions {
		positions[i] = i
	}
	return &PhraseQuery{Field: field, Terms: terms, Positions: positions, Slop: slop}, nil
}

// NewBoost wraps q so its scores are multiplied by boost, which must be a
// positive finite number.
func NewBoost(q Query, boost float64) (*BoostQuery, error) {
	if !validBoost(boost) {
		return nil, errors.NewInvalidArgumentError("boost", "must be a positive number, got %g", boost)
	}
	return &BoostQuery{Query: q, Boost: boost}, nil
}

// NewBoolean returns a BooleanQuery of the given clauses.
func NewBoolean(clauses ...Clause) *BooleanQuery {
	return &BooleanQuery{Clauses: clauses}
}

// MustClause, ShouldClause and MustNotClause build clauses for NewBoolean.
func MustClause(q Query) Clause    { return Clause{Query: q, Occur: Must} }
func ShouldClause(q Query) Clause  { return Clause{Query: q, Occur: Should} }
func MustNotClause(q Query) Clause { return Clause{Query: q, Occur: MustNot} }

func validBoost(b float64) bool {
	return b > 0 && !math.IsInf(b, 0) && !math.IsNaN(b)
}

// String renders values escaped so that distinct trees never render alike.
func (q *TermQuery) String() string {
	return q.Field + ":" + escapeTerm(q.Term)
}

func (q *PhraseQuery) String() string {
	var sb strings.Builder
	sb.WriteString(q.Field)
	sb.WriteString(`:"`)
	next := 0
	for i, term := range q.Terms {
		pos := i
		if i < len(q.Positions) {
			pos = q.Positions[i]
		}
		if i > 0 {
			sb.WriteByte(' ')
			// Gaps left by removed stopwords
			for ; next < pos; next++ {
				sb.WriteString("? ")
			}
		}
		sb.WriteString(escapePhraseTerm(term))
		next = pos + 1
	}
	sb.WriteByte('"')
	if q.Slop > 0 {
		sb.WriteString("~")
		sb.WriteString(strconv.Itoa(q.Slop))
	}
	return sb.String()
}

func (q *PrefixQuery) String() string {
	return q.Field + ":" + escapeTerm(q.Prefix) + "*"
}

func (q *WildcardQuery) String() string {
	return q.Field + ":" + escapePattern(q.Pattern)
}

func (q *FuzzyQuery) String() string {
	return q.Field + ":" + escapeTerm(q.Term) + "~" + strconv.Itoa(q.MaxEdits)
}

func (q *RangeQuery) String() string {
	open, closing := "{", "}"
	if q.IncludeLow {
		open = "["
	}
	if q.IncludeHigh {
		closing = "]"
	}
	low, high := "*", "*"
	if q.Low != "" {
		low = escapeTerm(q.Low)
	}
	if q.High != "" {
		high = escapeTerm(q.High)
	}
	return q.Field + ":" + open + low + " TO " + high + closing
}

func (q *BooleanQuery) String() string {
	parts := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		s := c.Query.String()
		if _, nested := c.Query.(*BooleanQuery); nested {
			s = "(" + s + ")"
		}
		parts = append(parts, c.Occur.prefix()+s)
	}
	return strings.Join(parts, " ")
}

func (q *BoostQuery) String() string {
	return "(" + q.Query.String() + ")^" + strconv.FormatFloat(q.Boost, 'g', -1, 64)
}

func (*MatchNoneQuery) String() string {
	return "<match none>"
}

// termSpecials are the characters the lexer gives a meaning to outside quotes.
const termSpecials = `\*?~^:"()[]{}+-!&|`

func escapeTerm(s string) string {
	return escape(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(termSpecials, r)
	})
}

// escapePattern keeps the wildcards and escapes of a pattern as they are.
func escapePattern(s string) string {
	return escape(s, func(r rune) bool {
		return r != '*' && r != '?' && r != '\\' && (unicode.IsSpace(r) || strings.ContainsRune(termSpecials, r))
	})
}

// escapePhraseTerm escapes '?' too, since it marks position gaps.
func escapePhraseTerm(s string) string {
	return escape(s, func(r rune) bool {
		return r == '"' || r == '\\' || r == '?'
	})
}

func escape(s string, special func(rune) bool) string {
	if !strings.ContainsFunc(s, special) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if special(r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
