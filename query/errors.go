package query

import (
	"fmt"

	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

// ErrSyntax matches every *SyntaxError through errors.Is.
var ErrSyntax = errors.ErrSyntax

// SyntaxError reports query text that does not follow the query grammar.
type SyntaxError struct {
	Position int // Byte offset of the offending token
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Position, e.Message)
}

func (e *SyntaxError) Is(target error) bool {
	return target == errors.ErrSyntax
}

func newSyntaxError(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Position: pos, Message: fmt.Sprintf(format, args...)}
}
