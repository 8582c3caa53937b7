package config

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productFields() []FieldSchema {
	return []FieldSchema{
		{Name: "product", Type: FieldTypeText},
		{Name: "department", Type: FieldTypeText},
		{Name: "sku", Type: FieldTypeKeyword},
	}
}

func TestValidateFieldNames(t *testing.T) {
	tests := []struct {
		name           string
		settings       IndexSettings
		expectedErrors int
		description    string
	}{
		{
			name: "valid product schema",
			settings: IndexSettings{
				Name:         "products",
				Fields:       productFields(),
				DefaultField: "product",
			},
			expectedErrors: 0,
			description:    "A text/keyword schema with a declared default field is valid",
		},
		{
			name: "duplicate field",
			settings: IndexSettings{
				Name:   "products",
				Fields: append(productFields(), FieldSchema{Name: "sku", Type: FieldTypeKeyword}),
			},
			expectedErrors: 1,
			description:    "Each field may only be declared once",
		},
		{
			name: "unknown field type",
			settings: IndexSettings{
				Name:   "products",
				Fields: []FieldSchema{{Name: "price", Type: "float"}},
			},
			expectedErrors: 1,
			description:    "Only text and keyword are supported",
		},
		{
			name: "reserved characters in field name",
			settings: IndexSettings{
				Name:   "products",
				Fields: []FieldSchema{{Name: "a:b", Type: FieldTypeText}},
			},
			expectedErrors: 1,
			description:    "Field names must be addressable from the query syntax",
		},
		{
			name: "undeclared default field",
			settings: IndexSettings{
				Name:         "products",
				Fields:       productFields(),
				DefaultField: "title",
			},
			expectedErrors: 1,
			description:    "The default field must be part of the schema",
		},
		{
			name: "undeclared default field with dynamic fields",
			settings: IndexSettings{
				Name:               "products",
				Fields:             productFields(),
				DefaultField:       "title",
				AllowDynamicFields: true,
			},
			expectedErrors: 0,
			description:    "Dynamic indexes may default to a field that appears later",
		},
		{
			name: "invalid enumerations",
			settings: IndexSettings{
				Name:     "products",
				Fields:   []FieldSchema{{Name: "sku", Type: FieldTypeKeyword, Ordering: "alphabetical"}},
				Parser:   ParserSettings{DefaultOperator: "XOR", MultiTermMode: "fuzzy"},
				Analyzer: AnalyzerSettings{Stemmer: "klingon"},
			},
			expectedErrors: 4,
			description:    "Ordering, operator, multi-term mode and stemmer are all checked",
		},
		{
			name: "scoring parameters out of range",
			settings: IndexSettings{
				Name:    "products",
				Fields:  productFields(),
				Scoring: ScoringSettings{K1: Float(-1), B: Float(2)},
			},
			expectedErrors: 2,
			description:    "k1 must be non-negative and b within [0, 1]",
		},
		{
			name: "empty field name",
			settings: IndexSettings{
				Name:   "products",
				Fields: []FieldSchema{{Name: "  ", Type: FieldTypeText}},
			},
			expectedErrors: 1,
			description:    "Whitespace-only names are rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.settings.ValidateFieldNames()
			assert.Len(t, errors, tt.expectedErrors, "%s: %v", tt.description, errors)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	settings := IndexSettings{
		Name: "products",
		Fields: []FieldSchema{
			{Name: "sku", Type: FieldTypeKeyword},
			{Name: "product"},
		},
		Parser: ParserSettings{DefaultOperator: "and"},
	}
	settings.ApplyDefaults()

	assert.Equal(t, FieldTypeText, settings.Fields[1].Type)
	assert.Equal(t, OrderingLexicographic, settings.Fields[0].Ordering)
	assert.Equal(t, "product", settings.DefaultField, "first text field becomes the default field")
	assert.Equal(t, OperatorAND, settings.Parser.DefaultOperator)
	assert.Equal(t, MultiTermPhrase, settings.Parser.MultiTermMode)
	k1, b := settings.Scoring.Params()
	assert.Equal(t, 1.2, k1)
	assert.Equal(t, 0.75, b)
	require.NotNil(t, settings.Scoring.B)

	explicit := IndexSettings{Name: "products", Fields: productFields(), Scoring: ScoringSettings{B: Float(0)}}
	explicit.ApplyDefaults()
	_, b = explicit.Scoring.Params()
	assert.Equal(t, 0.0, b, "b = 0 disables length normalization")
	assert.Empty(t, explicit.ValidateFieldNames())
	assert.NotNil(t, settings.Analyzer.Stopwords)
	assert.True(t, settings.Fields[0].IsStored(), "fields are stored unless disabled")
}

func TestFieldSchemaIsStored(t *testing.T) {
	no := false
	assert.False(t, FieldSchema{Name: "body", Stored: &no}.IsStored())
	assert.True(t, FieldSchema{Name: "body"}.IsStored())
}

func TestLoadIndexSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.yaml")
	content := `
name: products
default_field: product
fields:
  - name: product
    type: text
  - name: department
    type: text
  - name: sku
    type: keyword
    ordering: numeric
parser:
  multi_term_mode: and
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadIndexSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "products", settings.Name)
	require.Len(t, settings.Fields, 3)
	assert.Equal(t, OrderingNumeric, settings.Fields[2].Ordering)
	assert.Equal(t, MultiTermAnd, settings.Parser.MultiTermMode)
	assert.Equal(t, OperatorOR, settings.Parser.DefaultOperator)
	assert.Empty(t, settings.ValidateFieldNames())

	_, err = LoadIndexSettings(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestIndexSettingsGobKeepsExplicitZeros(t *testing.T) {
	no := false
	settings := IndexSettings{
		Name:    "products",
		Fields:  []FieldSchema{{Name: "product", Type: FieldTypeText, Stored: &no}},
		Scoring: ScoringSettings{B: Float(0)},
	}
	settings.ApplyDefaults()

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(settings))
	var decoded IndexSettings
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	decoded.ApplyDefaults()

	assert.Equal(t, settings, decoded)
	assert.False(t, decoded.Fields[0].IsStored())
	k1, b := decoded.Scoring.Params()
	assert.Equal(t, DefaultK1, k1)
	assert.Equal(t, 0.0, b)
}
