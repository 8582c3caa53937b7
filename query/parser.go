package query

import (
	"strconv"
	"strings"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
)

// FieldResolver tells the parser which fields exist and how they are indexed.
type FieldResolver interface {
	ResolveField(name string) (index.FieldInfo, bool)
}

// FieldResolverFunc adapts a function to FieldResolver.
type FieldResolverFunc func(name string) (index.FieldInfo, bool)

// ResolveField calls f(name).
func (f FieldResolverFunc) ResolveField(name string) (index.FieldInfo, bool) {
	return f(name)
}

// Parser turns query text into a Query.
//
// Grammar, informally:
//
//	query  := clause*
//	clause := [AND|OR|&&|||] [+|-|!|NOT] [field:] value [~N] [^boost]
//	value  := word+ | "phrase" | [low TO high] | (query)
//
// AND and OR have no precedence over each other; they are applied left to
// right as they are met, adjusting the Occur of the clause on either side.
// Clauses without an operator or modifier take the default operator. A run
// of plain words (no quotes, wildcards or operators between them) is a
// phrase with slop zero, or a conjunction of its terms in MultiTermAnd mode.
type Parser struct {
	analyzer   *analysis.Analyzer
	fields     FieldResolver
	andDefault bool
	multiTerm  config.MultiTermMode
}

// NewParser creates a parser that analyzes text with analyzer and checks
// field names against fields. A nil resolver accepts every field as text.
func NewParser(analyzer *analysis.Analyzer, fields FieldResolver, settings config.ParserSettings) *Parser {
	if analyzer == nil {
		analyzer = analysis.Standard()
	}
	mode := settings.MultiTermMode
	if mode == "" {
		mode = config.MultiTermPhrase
	}
	return &Parser{
		analyzer:   analyzer,
		fields:     fields,
		andDefault: strings.EqualFold(settings.DefaultOperator, config.OperatorAND),
		multiTerm:  mode,
	}
}

// Parse parses text, using defaultField for clauses without a field prefix.
// Empty text yields a MatchNoneQuery. Malformed text yields a *SyntaxError.
func (p *Parser) Parse(text, defaultField string) (Query, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	s := &parseState{Parser: p, tokens: tokens}
	q, err := s.parseQuery(defaultField)
	if err != nil {
		return nil, err
	}
	if tok := s.peek(); tok.kind != tokEOF {
		return nil, newSyntaxError(tok.pos, "unmatched ')'")
	}
	if q == nil {
		return &MatchNoneQuery{}, nil
	}
	return q, nil
}

type conjunction int

const (
	conjNone conjunction = iota
	conjAnd
	conjOr
)

type modifier int

const (
	modNone modifier = iota
	modRequired
	modProhibited
)

type parseState struct {
	*Parser
	tokens []token
	i      int
}

func (s *parseState) peek() token {
	return s.tokens[s.i]
}

func (s *parseState) next() token {
	tok := s.tokens[s.i]
	if tok.kind != tokEOF {
		s.i++
	}
	return tok
}

func startsClause(k tokenKind) bool {
	switch k {
	case tokWord, tokField, tokQuoted, tokLParen, tokRangeStart:
		return true
	}
	return false
}

// parseQuery parses clauses until the end of input or a closing parenthesis.
// It returns nil when every clause analyzed to nothing.
func (s *parseState) parseQuery(field string) (Query, error) {
	var clauses []Clause
	var first Query
	firstUnmodified := false
	count := 0

	for {
		tok := s.peek()
		if tok.kind == tokEOF || tok.kind == tokRParen {
			break
		}

		conj := conjNone
		if tok.kind == tokAnd || tok.kind == tokOr {
			if count == 0 {
				return nil, newSyntaxError(tok.pos, "%s must follow a clause", tok.kind)
			}
			s.next()
			conj = conjAnd
			if tok.kind == tokOr {
				conj = conjOr
			}
			if next := s.peek(); !startsClause(next.kind) && next.kind != tokPlus && next.kind != tokMinus && next.kind != tokNot {
				return nil, newSyntaxError(tok.pos, "%s must be followed by a clause", tok.kind)
			}
		}

		mod := modNone
		switch s.peek().kind {
		case tokPlus:
			mod = modRequired
		case tokMinus, tokNot:
			mod = modProhibited
		}
		if mod != modNone {
			modTok := s.next()
			if !startsClause(s.peek().kind) {
				return nil, newSyntaxError(modTok.pos, "%s must be followed by a clause", modTok.kind)
			}
		}

		q, err := s.parseClause(field)
		if err != nil {
			return nil, err
		}
		s.addClause(&clauses, conj, mod, q)
		if count == 0 && mod == modNone {
			first = q
			firstUnmodified = true
		}
		count++
	}

	if count == 1 && firstUnmodified {
		return first, nil
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	return &BooleanQuery{Clauses: clauses}, nil
}

// addClause appends q with the Occur implied by its conjunction and modifier,
// updating the previous clause when the conjunction binds it too.
func (s *parseState) addClause(clauses *[]Clause, conj conjunction, mod modifier, q Query) {
	cs := *clauses
	if n := len(cs); n > 0 && cs[n-1].Occur != MustNot {
		if conj == conjAnd {
			cs[n-1].Occur = Must
		}
		if s.andDefault && conj == conjOr {
			cs[n-1].Occur = Should
		}
	}
	if q == nil {
		return
	}

	prohibited := mod == modProhibited
	var required bool
	if s.andDefault {
		required = !prohibited && conj != conjOr
	} else {
		required = mod == modRequired || (conj == conjAnd && !prohibited)
	}

	occur := Should
	switch {
	case prohibited:
		occur = MustNot
	case required:
		occur = Must
	}
	*clauses = append(cs, Clause{Query: q, Occur: occur})
}

func (s *parseState) parseClause(field string) (Query, error) {
	tok := s.peek()
	if tok.kind == tokField {
		s.next()
		if _, err := s.resolve(tok.text, tok.pos); err != nil {
			return nil, err
		}
		field = tok.text
		next := s.peek()
		if !startsClause(next.kind) || next.kind == tokField {
			return nil, newSyntaxError(tok.pos, "missing value for field '%s'", tok.text)
		}
		tok = next
	}

	switch tok.kind {
	case tokLParen:
		s.next()
		if s.peek().kind == tokRParen {
			return nil, newSyntaxError(tok.pos, "empty group")
		}
		sub, err := s.parseQuery(field)
		if err != nil {
			return nil, err
		}
		if s.peek().kind != tokRParen {
			return nil, newSyntaxError(tok.pos, "unmatched '('")
		}
		s.next()
		return s.parseBoost(sub)
	case tokQuoted:
		return s.parsePhrase(field)
	case tokRangeStart:
		return s.parseRange(field)
	case tokWord:
		return s.parseWords(field)
	}
	return nil, newSyntaxError(tok.pos, "unexpected %s", tok.kind)
}

func (s *parseState) resolve(field string, pos int) (index.FieldInfo, error) {
	if field == "" {
		return index.FieldInfo{}, newSyntaxError(pos, "no field given and no default field configured")
	}
	if s.fields == nil {
		return index.FieldInfo{Name: field, Type: config.FieldTypeText, Ordering: config.OrderingLexicographic}, nil
	}
	info, ok := s.fields.ResolveField(field)
	if !ok {
		return index.FieldInfo{}, newSyntaxError(pos, "unknown field '%s'", field)
	}
	info.Name = field
	return info, nil
}

func (s *parseState) parsePhrase(field string) (Query, error) {
	tok := s.next()
	info, err := s.resolve(field, tok.pos)
	if err != nil {
		return nil, err
	}

	slop := 0
	if s.peek().kind == tokTilde {
		if slop, err = parseSlop(s.next()); err != nil {
			return nil, err
		}
	}

	var q Query
	if info.Type == config.FieldTypeKeyword {
		q = &TermQuery{Field: field, Term: tok.text}
	} else {
		q = s.phrase(field, s.analyzer.Analyze(tok.text), slop)
	}
	return s.parseBoost(q)
}

// parseWords parses a wildcard word or a run of plain words.
func (s *parseState) parseWords(field string) (Query, error) {
	first := s.next()
	info, err := s.resolve(field, first.pos)
	if err != nil {
		return nil, err
	}
	if first.wildcard {
		return s.parseBoost(s.wildcard(info, first.pattern))
	}

	words := []string{first.text}
	for next := s.peek(); next.kind == tokWord && !next.wildcard; next = s.peek() {
		words = append(words, s.next().text)
	}

	if s.peek().kind == tokTilde {
		tilde := s.next()
		if len(words) == 1 {
			edits, err := parseFuzzy(tilde)
			if err != nil {
				return nil, err
			}
			term := first.text
			if info.Type == config.FieldTypeText {
				term = s.analyzer.Normalize(term)
			}
			return s.parseBoost(&FuzzyQuery{Field: field, Term: term, MaxEdits: edits})
		}
		slop, err := parseSlop(tilde)
		if err != nil {
			return nil, err
		}
		if info.Type == config.FieldTypeKeyword {
			return s.parseBoost(&TermQuery{Field: field, Term: strings.Join(words, " ")})
		}
		return s.parseBoost(s.phrase(field, s.analyzer.Analyze(strings.Join(words, " ")), slop))
	}

	if info.Type == config.FieldTypeKeyword {
		return s.parseBoost(&TermQuery{Field: field, Term: strings.Join(words, " ")})
	}
	tokens := s.analyzer.Analyze(strings.Join(words, " "))
	if s.multiTerm == config.MultiTermAnd && len(tokens) > 1 {
		clauses := make([]Clause, len(tokens))
		for i, t := range tokens {
			clauses[i] = Clause{Query: &TermQuery{Field: field, Term: t.Term}, Occur: Must}
		}
		return s.parseBoost(&BooleanQuery{Clauses: clauses})
	}
	return s.parseBoost(s.phrase(field, tokens, 0))
}

// phrase builds the query for analyzed tokens: nothing, a single term, or a
// phrase whose positions are relative to the first token.
func (s *parseState) phrase(field string, tokens []analysis.Token, slop int) Query {
	switch len(tokens) {
	case 0:
		return nil
	case 1:
		return &TermQuery{Field: field, Term: tokens[0].Term}
	}
	terms := make([]string, len(tokens))
	positions := make([]int, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
		positions[i] = t.Position - tokens[0].Position
	}
	return &PhraseQuery{Field: field, Terms: terms, Positions: positions, Slop: slop}
}

// wildcard builds a prefix query for patterns whose only wildcard is a
// trailing '*', and a wildcard query otherwise.
func (s *parseState) wildcard(info index.FieldInfo, pattern string) Query {
	if info.Type == config.FieldTypeText {
		pattern = s.analyzer.Normalize(pattern)
	}
	if prefix, ok := trailingStarPrefix(pattern); ok {
		return &PrefixQuery{Field: info.Name, Prefix: prefix}
	}
	return &WildcardQuery{Field: info.Name, Pattern: pattern}
}

// trailingStarPrefix returns the unescaped text before a final '*' when the
// pattern has no other wildcard.
func trailingStarPrefix(pattern string) (string, bool) {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			i++
			sb.WriteByte(pattern[i])
		case c == '*' && i == len(pattern)-1:
			return sb.String(), true
		case c == '*' || c == '?':
			return "", false
		default:
			sb.WriteByte(c)
		}
	}
	return "", false
}

func (s *parseState) parseRange(field string) (Query, error) {
	start := s.next()
	info, err := s.resolve(field, start.pos)
	if err != nil {
		return nil, err
	}

	low, err := s.rangeBound(info, start, "lower")
	if err != nil {
		return nil, err
	}
	if to := s.peek(); to.kind != tokWord || to.text != "TO" {
		if to.kind == tokEOF {
			return nil, newSyntaxError(start.pos, "unterminated range")
		}
		return nil, newSyntaxError(to.pos, "expected 'TO' in range")
	}
	s.next()
	high, err := s.rangeBound(info, start, "upper")
	if err != nil {
		return nil, err
	}
	end := s.peek()
	if end.kind != tokRangeEnd {
		return nil, newSyntaxError(start.pos, "unmatched range bracket")
	}
	s.next()

	return s.parseBoost(&RangeQuery{
		Field:       field,
		Low:         low,
		High:        high,
		IncludeLow:  start.inclusive,
		IncludeHigh: end.inclusive,
	})
}

// rangeBound reads one range bound. "*" is an open bound, returned as "".
func (s *parseState) rangeBound(info index.FieldInfo, start token, which string) (string, error) {
	tok := s.peek()
	switch tok.kind {
	case tokWord, tokQuoted:
	case tokEOF:
		return "", newSyntaxError(start.pos, "unterminated range")
	default:
		return "", newSyntaxError(tok.pos, "missing %s range bound", which)
	}
	s.next()

	if tok.kind == tokWord && tok.wildcard && tok.text == "*" {
		return "", nil
	}
	bound := tok.text
	if info.Type == config.FieldTypeText {
		bound = s.analyzer.Normalize(bound)
	}
	if info.Ordering == config.OrderingNumeric {
		if _, err := strconv.ParseFloat(bound, 64); err != nil {
			return "", newSyntaxError(tok.pos, "range bound '%s' is not a number", tok.text)
		}
	}
	return bound, nil
}

// parseBoost wraps q in a BoostQuery when a ^boost follows.
func (s *parseState) parseBoost(q Query) (Query, error) {
	if s.peek().kind != tokBoost {
		return q, nil
	}
	tok := s.next()
	if tok.text == "" {
		return nil, newSyntaxError(tok.pos, "missing boost value")
	}
	boost, err := strconv.ParseFloat(tok.text, 64)
	if err != nil || !validBoost(boost) {
		return nil, newSyntaxError(tok.pos, "boost must be a positive number, got '%s'", tok.text)
	}
	if q == nil {
		return nil, nil
	}
	return &BoostQuery{Query: q, Boost: boost}, nil
}

func parseSlop(tok token) (int, error) {
	if tok.text == "" {
		return 0, newSyntaxError(tok.pos, "missing slop value")
	}
	slop, err := strconv.Atoi(tok.text)
	if err != nil || slop < 0 {
		return 0, newSyntaxError(tok.pos, "slop must be a non-negative integer, got '%s'", tok.text)
	}
	return slop, nil
}

func parseFuzzy(tok token) (int, error) {
	if tok.text == "" {
		return 2, nil
	}
	edits, err := strconv.Atoi(tok.text)
	if err != nil || edits < 0 || edits > 2 {
		return 0, newSyntaxError(tok.pos, "fuzzy edit distance must be 0, 1 or 2, got '%s'", tok.text)
	}
	return edits, nil
}
