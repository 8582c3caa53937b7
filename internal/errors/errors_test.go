package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors(t *testing.T) {
	sentinels := []error{
		ErrIndexNotFound, ErrIndexAlreadyExists, ErrDocumentNotFound,
		ErrJobNotFound, ErrInvalidInput, ErrInvalidArgument, ErrSyntax,
	}

	tests := []struct {
		name     string
		err      error
		message  string
		matching []error
	}{
		{
			name:     "index not found",
			err:      NewIndexNotFoundError("products"),
			message:  "index named 'products' not found",
			matching: []error{ErrIndexNotFound},
		},
		{
			name:     "index already exists",
			err:      NewIndexAlreadyExistsError("products"),
			message:  "index named 'products' already exists",
			matching: []error{ErrIndexAlreadyExists},
		},
		{
			name:     "document not found",
			err:      NewDocumentNotFoundError(42),
			message:  "document 42 not found",
			matching: []error{ErrDocumentNotFound},
		},
		{
			name:     "document not found in index",
			err:      NewDocumentNotFoundError(7, "products"),
			message:  "document 7 not found in index 'products'",
			matching: []error{ErrDocumentNotFound},
		},
		{
			name:     "job not found",
			err:      NewJobNotFoundError("job-456"),
			message:  "job with ID 'job-456' not found",
			matching: []error{ErrJobNotFound},
		},
		{
			name:     "validation with field",
			err:      NewValidationError("name", "cannot be empty"),
			message:  "validation error for field 'name': cannot be empty",
			matching: []error{ErrInvalidInput},
		},
		{
			name:     "validation without field",
			err:      NewValidationError("", "cannot be empty"),
			message:  "validation error: cannot be empty",
			matching: []error{ErrInvalidInput},
		},
		{
			name:     "invalid argument",
			err:      NewInvalidArgumentError("limit", "must be positive, got %d", 0),
			message:  "invalid argument 'limit': must be positive, got 0",
			matching: []error{ErrInvalidArgument, ErrInvalidInput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			for _, sentinel := range sentinels {
				expected := false
				for _, m := range tt.matching {
					if m == sentinel {
						expected = true
					}
				}
				assert.Equal(t, expected, errors.Is(tt.err, sentinel), "errors.Is(%v)", sentinel)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	wrapped := fmt.Errorf("loading snapshot: %w", NewIndexNotFoundError("test-index"))
	joined := errors.Join(wrapped, errors.New("additional context"))

	assert.True(t, errors.Is(joined, ErrIndexNotFound))

	var indexErr *IndexNotFoundError
	require.True(t, errors.As(joined, &indexErr))
	assert.Equal(t, "test-index", indexErr.IndexName)
}
