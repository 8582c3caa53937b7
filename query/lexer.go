package query

import (
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokField
	tokQuoted
	tokLParen
	tokRParen
	tokRangeStart
	tokRangeEnd
	tokPlus
	tokMinus
	tokNot
	tokAnd
	tokOr
	tokBoost
	tokTilde
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokWord:
		return "term"
	case tokField:
		return "field"
	case tokQuoted:
		return "quoted phrase"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokRangeStart:
		return "range start"
	case tokRangeEnd:
		return "range end"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokNot:
		return "NOT"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokBoost:
		return "'^'"
	case tokTilde:
		return "'~'"
	}
	return "token"
}

type token struct {
	kind      tokenKind
	text      string // Unescaped text of words, fields, phrases and the number of ^ and ~
	pattern   string // Word text keeping escapes of '*', '?' and '\'
	wildcard  bool   // Word contains an unescaped '*' or '?'
	inclusive bool   // '[' or ']' rather than '{' or '}'
	pos       int    // Byte offset in the query text
}

// isBreak reports characters that end a word.
func isBreak(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '(', ')', '[', ']', '{', '}', '"', '^', '~', ':':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// lex splits query text into tokens. The last token is always tokEOF.
func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case isSpace(c):
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		case c == '[' || c == '{':
			tokens = append(tokens, token{kind: tokRangeStart, inclusive: c == '[', pos: i})
			i++
		case c == ']' || c == '}':
			tokens = append(tokens, token{kind: tokRangeEnd, inclusive: c == ']', pos: i})
			i++
		case c == '+':
			tokens = append(tokens, token{kind: tokPlus, pos: i})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokMinus, pos: i})
			i++
		case c == '!':
			tokens = append(tokens, token{kind: tokNot, pos: i})
			i++
		case strings.HasPrefix(input[i:], "&&"):
			tokens = append(tokens, token{kind: tokAnd, pos: i})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			tokens = append(tokens, token{kind: tokOr, pos: i})
			i += 2
		case c == ':':
			return nil, newSyntaxError(i, "missing field name before ':'")
		case c == '"':
			tok, next, err := lexQuoted(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case c == '^' || c == '~':
			start := i
			i++
			for i < len(input) && !isBreak(input[i]) {
				i++
			}
			kind := tokBoost
			if c == '~' {
				kind = tokTilde
			}
			tokens = append(tokens, token{kind: kind, text: input[start+1 : i], pos: start})
		default:
			tok, next, err := lexWord(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(input)}), nil
}

func lexQuoted(input string, start int) (token, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch c {
		case '\\':
			if i+1 >= len(input) {
				return token{}, 0, newSyntaxError(i, "escape character at end of query")
			}
			_, size := utf8.DecodeRuneInString(input[i+1:])
			sb.WriteString(input[i+1 : i+1+size])
			i += 1 + size
		case '"':
			return token{kind: tokQuoted, text: sb.String(), pos: start}, i + 1, nil
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return token{}, 0, newSyntaxError(start, "unterminated quoted phrase")
}

func lexWord(input string, start int) (token, int, error) {
	var text, pattern strings.Builder
	escaped := false
	wildcard := false
	i := start
	for i < len(input) && !isBreak(input[i]) {
		c := input[i]
		if c == '\\' {
			if i+1 >= len(input) {
				return token{}, 0, newSyntaxError(i, "escape character at end of query")
			}
			_, size := utf8.DecodeRuneInString(input[i+1:])
			lit := input[i+1 : i+1+size]
			text.WriteString(lit)
			if lit == "*" || lit == "?" || lit == `\` {
				pattern.WriteByte('\\')
			}
			pattern.WriteString(lit)
			escaped = true
			i += 1 + size
			continue
		}
		if c == '*' || c == '?' {
			wildcard = true
		}
		text.WriteByte(c)
		pattern.WriteByte(c)
		i++
	}

	tok := token{kind: tokWord, text: text.String(), pattern: pattern.String(), wildcard: wildcard, pos: start}
	if i < len(input) && input[i] == ':' {
		tok.kind = tokField
		return tok, i + 1, nil
	}
	if !escaped {
		switch tok.text {
		case "AND":
			tok.kind = tokAnd
		case "OR":
			tok.kind = tokOr
		case "NOT":
			tok.kind = tokNot
		}
	}
	return tok, i, nil
}
