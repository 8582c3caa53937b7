// Package analysis turns field text into positioned terms.
//
// The same Analyzer is used when documents are indexed and when query text is
// parsed, so a query term always matches the indexed form of the same word.
package analysis

import (
	"iter"
	"regexp"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/gcbaptista/go-fulltext-engine/config"
)

// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request"
var acronymRegex = regexp.MustCompile(`(\p{Lu}+)(\p{Lu}\p{Ll})`)

// camelCaseRegex handles cases like "theOffice" -> "the Office" or "myAPI" -> "my API"
var camelCaseRegex = regexp.MustCompile(`([\p{Ll}\p{Nd}])(\p{Lu})`)

// Token is a single analyzed term and its ordinal position in the source text.
type Token struct {
	Term     string
	Position int
}

// Analyzer splits text into lowercase terms on runs of characters that are
// neither letters nor digits. Positions count every split token, including
// stopwords that are dropped, so phrase distances reflect the original text.
type Analyzer struct {
	normalize  bool
	splitCamel bool
	stem       bool
	stopwords  map[string]struct{}
}

// New builds an analyzer from index settings.
func New(settings config.AnalyzerSettings) *Analyzer {
	a := &Analyzer{
		normalize:  settings.UnicodeNormalization,
		splitCamel: settings.SplitCamelCase,
		stem:       settings.Stemmer == config.StemmerEnglish,
	}
	if len(settings.Stopwords) > 0 {
		a.stopwords = make(map[string]struct{}, len(settings.Stopwords))
		for _, w := range settings.Stopwords {
			a.stopwords[a.Normalize(w)] = struct{}{}
		}
	}
	return a
}

// Standard returns the analyzer used when no settings are given: split and lowercase only.
func Standard() *Analyzer {
	return &Analyzer{}
}

// Tokens yields the analyzed tokens of text in order.
func (a *Analyzer) Tokens(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		t := text
		if a.splitCamel {
			t = acronymRegex.ReplaceAllString(t, "$1 $2")
			t = camelCaseRegex.ReplaceAllString(t, "$1 $2")
		}
		t = a.Normalize(t)

		position := 0
		for _, word := range strings.FieldsFunc(t, isSeparator) {
			pos := position
			position++
			if _, stop := a.stopwords[word]; stop {
				continue
			}
			if a.stem {
				word = snowballeng.Stem(word, false)
			}
			if !yield(Token{Term: word, Position: pos}) {
				return
			}
		}
	}
}

// Analyze returns every token of text. The result is never nil.
func (a *Analyzer) Analyze(text string) []Token {
	tokens := make([]Token, 0)
	for tok := range a.Tokens(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Terms returns the analyzed terms of text without positions.
func (a *Analyzer) Terms(text string) []string {
	terms := make([]string, 0)
	for tok := range a.Tokens(text) {
		terms = append(terms, tok.Term)
	}
	return terms
}

// Normalize applies the character-level steps of the analyzer (Unicode
// normalization and lowercasing) without splitting or stemming. Wildcard
// patterns and range bounds go through it so they compare against indexed terms.
func (a *Analyzer) Normalize(term string) string {
	if a.normalize {
		term = norm.NFKC.String(term)
	}
	return strings.ToLower(term)
}

// IsStopword reports whether the normalized term is dropped by the analyzer.
func (a *Analyzer) IsStopword(term string) bool {
	_, ok := a.stopwords[a.Normalize(term)]
	return ok
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Tokenize splits text with the standard analyzer and returns its terms.
func Tokenize(text string) []string {
	return Standard().Terms(text)
}
